package session

import (
	"context"
	"errors"

	"github.com/hyperjump/counsel/internal/models"
	"github.com/hyperjump/counsel/pkg/utils"
	"go.uber.org/zap"
)

// API is the remote service a Controller delegates to.
type API interface {
	Ask(ctx context.Context, question string) (*models.Answer, error)
	FetchDocument(ctx context.Context, name string) (*models.Document, error)
}

// ErrEmptyResult is returned when the service reports success but hands back nothing.
var ErrEmptyResult = errors.New("empty result")

// Controller runs complete request cycles against a Session.
type Controller struct {
	session *Session
	api     API
	logger  *zap.Logger
}

// NewController binds s to api.
func NewController(s *Session, api API, logger *zap.Logger) *Controller {
	return &Controller{session: s, api: api, logger: utils.OrNop(logger)}
}

// Session returns the controlled session.
func (c *Controller) Session() *Session {
	return c.session
}

// SubmitQuestion asks input and blocks until the answer settles. It returns
// false when the submission was ignored (blank input, or a question already
// outstanding). The returned error is the request failure, already recorded
// in the log as the apology message.
func (c *Controller) SubmitQuestion(ctx context.Context, input string) (bool, error) {
	question, ok := c.beginAsk(input)
	if !ok {
		return false, nil
	}
	return true, c.ask(ctx, question)
}

// StartQuestion records input like SubmitQuestion but sends it on a new
// goroutine and returns at once. The channel receives the request failure,
// or nil, after the answer has settled; it is buffered and may be ignored.
func (c *Controller) StartQuestion(ctx context.Context, input string) (<-chan error, bool) {
	question, ok := c.beginAsk(input)
	if !ok {
		return nil, false
	}
	done := make(chan error, 1)
	go func() { done <- c.ask(ctx, question) }()
	return done, true
}

func (c *Controller) beginAsk(input string) (string, bool) {
	question, ok := c.session.BeginAsk(input)
	if !ok {
		c.logger.Debug("submission ignored", zap.Bool("loading", c.session.Loading()))
	}
	return question, ok
}

func (c *Controller) ask(ctx context.Context, question string) error {
	answer, err := c.api.Ask(ctx, question)
	if err == nil && answer == nil {
		err = ErrEmptyResult
	}
	c.session.SettleAsk(answer, err)
	if err != nil {
		c.logger.Warn("ask failed", zap.Error(err))
		return err
	}
	c.logger.Info("ask settled", zap.Int("sources", len(answer.Sources)))
	return nil
}

// OpenDocument shows name in the viewer and blocks until its content settles.
// It returns false when another fetch is outstanding.
func (c *Controller) OpenDocument(ctx context.Context, name string) (bool, error) {
	ticket, ok := c.session.BeginDocument(name)
	if !ok {
		return false, nil
	}
	return true, c.fetch(ctx, ticket, name)
}

// StartDocument opens the viewer like OpenDocument but fetches on a new
// goroutine and returns at once. The channel behaves as in StartQuestion.
func (c *Controller) StartDocument(ctx context.Context, name string) (<-chan error, bool) {
	ticket, ok := c.session.BeginDocument(name)
	if !ok {
		return nil, false
	}
	done := make(chan error, 1)
	go func() { done <- c.fetch(ctx, ticket, name) }()
	return done, true
}

func (c *Controller) fetch(ctx context.Context, ticket Ticket, name string) error {
	doc, err := c.api.FetchDocument(ctx, name)
	if err == nil && doc == nil {
		err = ErrEmptyResult
	}
	if !c.session.SettleDocument(ticket, doc, err) {
		c.logger.Debug("stale document result dropped", zap.String("document", name))
	}
	if err != nil {
		c.logger.Warn("document fetch failed", zap.String("document", name), zap.Error(err))
		return err
	}
	return nil
}

// CloseModal closes the viewer.
func (c *Controller) CloseModal() {
	c.session.CloseModal()
}
