// Package apitest provides a scriptable fake of the question-answering
// service for tests: POST /ask and GET /document/{name}.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/counsel/internal/models"
)

// Backend is a fake service bound to an httptest.Server.
type Backend struct {
	server *httptest.Server

	mu         sync.Mutex
	askStatus  int
	askBody    string
	askGate    chan struct{}
	questions  []string
	documents  map[string]string
	docStatus  int
	docGate    chan struct{}
	docLookups []string
	requestIDs []string
}

// New starts a backend that answers every question with an empty answer
// and knows no documents. The server is closed when the test ends.
func New(t testing.TB) *Backend {
	b := &Backend{
		askStatus: http.StatusOK,
		documents: make(map[string]string),
	}
	b.SetAnswer("")

	r := chi.NewRouter()
	r.Post("/ask", b.handleAsk)
	r.Get("/document/{name}", b.handleDocument)
	b.server = httptest.NewServer(r)
	t.Cleanup(func() {
		b.ReleaseAsks()
		b.ReleaseDocuments()
		b.server.Close()
	})
	return b
}

// URL returns the base URL of the backend.
func (b *Backend) URL() string {
	return b.server.URL
}

// SetAnswer makes /ask succeed with answer and sources.
func (b *Backend) SetAnswer(answer string, sources ...models.Evidence) {
	if sources == nil {
		sources = []models.Evidence{}
	}
	body, _ := json.Marshal(models.Answer{Text: answer, Sources: sources})
	b.SetAskResponse(http.StatusOK, string(body))
}

// SetAskResponse makes /ask reply with a raw status and body.
func (b *Backend) SetAskResponse(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.askStatus = status
	b.askBody = body
}

// HoldAsks blocks /ask handlers until ReleaseAsks is called.
func (b *Backend) HoldAsks() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.askGate == nil {
		b.askGate = make(chan struct{})
	}
}

// ReleaseAsks unblocks held /ask handlers.
func (b *Backend) ReleaseAsks() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.askGate != nil {
		close(b.askGate)
		b.askGate = nil
	}
}

// AddDocument registers content under name.
func (b *Backend) AddDocument(name, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.documents[name] = content
}

// FailDocuments makes /document reply with status. Zero restores normal lookups.
func (b *Backend) FailDocuments(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docStatus = status
}

// HoldDocuments blocks /document handlers until ReleaseDocuments is called.
func (b *Backend) HoldDocuments() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.docGate == nil {
		b.docGate = make(chan struct{})
	}
}

// ReleaseDocuments unblocks held /document handlers.
func (b *Backend) ReleaseDocuments() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.docGate != nil {
		close(b.docGate)
		b.docGate = nil
	}
}

// Questions returns the questions received so far, in order.
func (b *Backend) Questions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.questions...)
}

// DocumentLookups returns the decoded document names requested so far.
func (b *Backend) DocumentLookups() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.docLookups...)
}

// RequestIDs returns the X-Request-ID headers seen so far.
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

func (b *Backend) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid request body"}`, http.StatusUnprocessableEntity)
		return
	}
	b.mu.Lock()
	b.questions = append(b.questions, req.Question)
	b.requestIDs = append(b.requestIDs, r.Header.Get("X-Request-ID"))
	gate := b.askGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	b.mu.Lock()
	status, body := b.askStatus, b.askBody
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (b *Backend) handleDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	b.mu.Lock()
	b.docLookups = append(b.docLookups, name)
	gate := b.docGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	b.mu.Lock()
	status := b.docStatus
	content, ok := b.documents[name]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"unavailable"}`))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Document content not available"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"filename": name, "content": content})
}
