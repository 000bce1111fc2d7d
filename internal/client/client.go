// Package client talks to the contract question-answering service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/counsel/internal/models"
	"github.com/hyperjump/counsel/pkg/utils"
	"go.uber.org/zap"
)

// Failure classes. Every failure to build, send, or read a request matches
// exactly one of ErrTransport, ErrStatus, or ErrDecode under errors.Is.
// FetchDocument rejects a blank name with ErrInvalidIdentifier, which is none
// of those, before anything is sent.
var (
	ErrTransport         = errors.New("service unreachable")
	ErrStatus            = errors.New("unexpected status")
	ErrDecode            = errors.New("malformed response")
	ErrInvalidIdentifier = errors.New("invalid document identifier")
)

const maxErrorBody = 512

// StatusError is returned for non-2xx replies.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Client calls POST /ask and GET /document/{name} on a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger for request outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = utils.OrNop(logger) }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ask sends question to the service and returns its validated answer.
func (c *Client) Ask(ctx context.Context, question string) (*models.Answer, error) {
	body, err := json.Marshal(models.AskRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("%w: encode question: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.AskResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		c.logger.Warn("ask response rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	answer := resp.ToAnswer()
	c.logger.Debug("ask answered", zap.Int("sources", len(answer.Sources)))
	return answer, nil
}

// FetchDocument returns the full content of the named document. The name is
// sent as a single escaped path segment.
func (c *Client) FetchDocument(ctx context.Context, name string) (*models.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidIdentifier
	}
	endpoint := c.baseURL + "/document/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	var resp models.DocumentResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		c.logger.Warn("document response rejected", zap.String("document", name), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	c.logger.Debug("document fetched", zap.String("document", name), zap.Int("bytes", len(*resp.Content)))
	return resp.ToDocument(name), nil
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	log := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("request returned error status", zap.Int("status", resp.StatusCode))
		return &StatusError{StatusCode: resp.StatusCode, Body: utils.Truncate(strings.TrimSpace(string(b)), maxErrorBody)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Warn("decode response failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	log.Debug("request completed", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return nil
}
