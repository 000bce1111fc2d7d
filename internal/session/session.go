// Package session holds the state of one chat with the contract assistant:
// the message log, the evidence behind the latest answer, and the document
// viewer. All mutation goes through Session methods.
package session

import (
	"slices"
	"strings"
	"sync"

	"github.com/hyperjump/counsel/internal/models"
)

// User-visible texts.
const (
	Greeting            = "Hello! I am your AI Legal Assistant. I have analyzed the contracts in your workspace. Ask me anything about them."
	AskFailureText      = "Sorry, I encountered an error connecting to the legal engine."
	DocumentFailureText = "Error loading full document content."
)

// ModalState is the state of the document viewer.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalLoading
	ModalLoaded
	ModalErrored
)

func (s ModalState) String() string {
	switch s {
	case ModalClosed:
		return "closed"
	case ModalLoading:
		return "loading"
	case ModalLoaded:
		return "loaded"
	case ModalErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Modal is the document viewer.
type Modal struct {
	State   ModalState
	Title   string
	Content string
}

// Open reports whether the viewer is shown.
func (m Modal) Open() bool { return m.State != ModalClosed }

// Loading reports whether a document fetch is outstanding.
func (m Modal) Loading() bool { return m.State == ModalLoading }

// Ticket identifies one opening of the document viewer.
type Ticket uint64

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	Messages  []models.Message
	Input     string
	LastQuery string
	Evidence  []models.Evidence
	Loading   bool
	Modal     Modal
}

// Session is safe for use by multiple goroutines. Each method runs to
// completion before the next one starts.
type Session struct {
	mu        sync.Mutex
	messages  []models.Message
	input     string
	lastQuery string
	evidence  []models.Evidence
	loading   bool
	modal     Modal
	ticket    Ticket
}

// Option configures a new Session.
type Option func(*Session)

// WithoutGreeting starts the log empty.
func WithoutGreeting() Option {
	return func(s *Session) { s.messages = nil }
}

// New returns a session whose log starts with the assistant's greeting.
func New(opts ...Option) *Session {
	s := &Session{
		messages: []models.Message{{Role: models.RoleBot, Text: Greeting}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetInput replaces the pending input text. Ignored while a question is outstanding.
func (s *Session) SetInput(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return false
	}
	s.input = text
	return true
}

// BeginAsk records input as a new question. It returns the text to send and
// true, or false when input is blank or a question is already outstanding;
// in that case nothing changes.
func (s *Session) BeginAsk(input string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading || strings.TrimSpace(input) == "" {
		return "", false
	}
	s.messages = append(s.messages, models.Message{Role: models.RoleUser, Text: input})
	s.lastQuery = input
	s.input = ""
	s.evidence = nil
	s.loading = true
	return input, true
}

// SettleAsk records the outcome of the outstanding question. A nil answer or
// a non-nil err appends the failure message and leaves the evidence empty.
// Calls with no question outstanding are ignored.
func (s *Session) SettleAsk(answer *models.Answer, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loading {
		return
	}
	s.loading = false
	if err != nil || answer == nil {
		s.messages = append(s.messages, models.Message{Role: models.RoleBot, Text: AskFailureText})
		return
	}
	s.messages = append(s.messages, models.Message{Role: models.RoleBot, Text: answer.Text})
	s.evidence = slices.Clone(answer.Sources)
}

// BeginDocument opens the viewer for name in the loading state and returns
// the ticket that SettleDocument must present. It returns false, changing
// nothing, while another fetch is outstanding.
func (s *Session) BeginDocument(name string) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modal.Loading() {
		return 0, false
	}
	s.ticket++
	s.modal = Modal{State: ModalLoading, Title: name}
	return s.ticket, true
}

// SettleDocument stores the fetched content, or the failure text when err is
// non-nil. Settlements for a viewer that has since been closed or reopened
// are dropped; it reports whether the settlement was applied.
func (s *Session) SettleDocument(t Ticket, doc *models.Document, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.ticket || !s.modal.Loading() {
		return false
	}
	if err != nil || doc == nil {
		s.modal.State = ModalErrored
		s.modal.Content = DocumentFailureText
		return true
	}
	s.modal.State = ModalLoaded
	s.modal.Content = doc.Content
	return true
}

// CloseModal discards the viewer state.
func (s *Session) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = Modal{}
}

// Loading reports whether a question is outstanding.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Messages:  slices.Clone(s.messages),
		Input:     s.input,
		LastQuery: s.lastQuery,
		Evidence:  slices.Clone(s.evidence),
		Loading:   s.loading,
		Modal:     s.modal,
	}
}
