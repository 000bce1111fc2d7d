// Package tui is the interactive terminal front end: an evidence panel, a
// chat panel, and a document viewer over one session.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/hyperjump/counsel/internal/models"
	"github.com/hyperjump/counsel/internal/session"
	"github.com/hyperjump/counsel/pkg/utils"
	"go.uber.org/zap"
)

const (
	inputPlaceholder = "Ask a question about the contracts..."
	waitPlaceholder  = "Wait"
)

// Config wires runtime dependencies into the program.
type Config struct {
	API     session.API
	Session *session.Session
	Logger  *zap.Logger
	// Context bounds outbound requests; they are otherwise never cancelled.
	Context context.Context
}

type focus int

const (
	focusInput focus = iota
	focusEvidence
)

type answerMsg struct {
	answer *models.Answer
	err    error
}

type documentMsg struct {
	ticket session.Ticket
	name   string
	doc    *models.Document
	err    error
}

// Model is the Bubble Tea model.
type Model struct {
	api     session.API
	session *session.Session
	logger  *zap.Logger
	ctx     context.Context

	input    textinput.Model
	chat     viewport.Model
	doc      viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	focus    focus
	selected int
	width    int
	height   int
	ready    bool
	layout   layout
}

// New returns a model ready to be mounted into a Program.
func New(cfg Config) *Model {
	in := textinput.New()
	in.Placeholder = inputPlaceholder
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	sess := cfg.Session
	if sess == nil {
		sess = session.New()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	return &Model{
		api:     cfg.API,
		session: sess,
		logger:  utils.OrNop(cfg.Logger),
		ctx:     ctx,
		input:   in,
		chat:    viewport.New(80, 20),
		doc:     viewport.New(80, 20),
		spinner: spin,
	}
}

// Run starts the program and blocks until the user quits.
func Run(cfg Config) error {
	m := New(cfg)
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	if cfg.Context != nil {
		opts = append(opts, tea.WithContext(cfg.Context))
	}
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

// Init starts the cursor blink and spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles one event.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case answerMsg:
		m.session.SettleAsk(msg.answer, msg.err)
		if msg.err != nil {
			m.logger.Warn("ask failed", zap.Error(msg.err))
		}
		m.selected = 0
		m.input.Placeholder = inputPlaceholder
		m.refreshChat()
		if m.focus == focusInput {
			return m, m.input.Focus()
		}
		return m, nil
	case documentMsg:
		if !m.session.SettleDocument(msg.ticket, msg.doc, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("document fetch failed", zap.String("document", msg.name), zap.Error(msg.err))
		}
		m.refreshDocument()
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	snap := m.session.Snapshot()

	if snap.Modal.Open() {
		switch msg.String() {
		case "esc", "q", "enter":
			m.session.CloseModal()
			return m, nil
		}
		var cmd tea.Cmd
		m.doc, cmd = m.doc.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "tab", "shift+tab":
		if m.focus == focusInput && len(snap.Evidence) > 0 {
			m.focus = focusEvidence
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.focusInput(snap.Loading)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	if m.focus == focusEvidence {
		switch msg.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(snap.Evidence)-1 {
				m.selected++
			}
		case "enter":
			return m, m.openSelected(snap.Evidence)
		case "esc":
			m.focus = focusInput
			return m, m.focusInput(snap.Loading)
		}
		return m, nil
	}

	if snap.Loading {
		return m, nil
	}
	if msg.Type == tea.KeyEnter {
		return m, m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetInput(m.input.Value())
	return m, cmd
}

func (m *Model) focusInput(loading bool) tea.Cmd {
	if loading {
		return nil
	}
	return m.input.Focus()
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	snap := m.session.Snapshot()
	if !snap.Modal.Open() {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.layout.modal.contains(msg.X, msg.Y) {
		m.session.CloseModal()
		return m, nil
	}
	var cmd tea.Cmd
	m.doc, cmd = m.doc.Update(msg)
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	question, ok := m.session.BeginAsk(m.input.Value())
	if !ok {
		return nil
	}
	m.logger.Debug("question submitted", zap.Int("length", len(question)))
	m.input.SetValue("")
	m.input.Placeholder = waitPlaceholder
	m.input.Blur()
	m.focus = focusInput
	m.selected = 0
	m.refreshChat()

	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		answer, err := api.Ask(ctx, question)
		return answerMsg{answer: answer, err: err}
	}
}

func (m *Model) openSelected(evidence []models.Evidence) tea.Cmd {
	if m.selected < 0 || m.selected >= len(evidence) {
		return nil
	}
	name := evidence[m.selected].Source
	ticket, ok := m.session.BeginDocument(name)
	if !ok {
		return nil
	}
	m.doc.SetContent("")
	m.doc.GotoTop()

	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		doc, err := api.FetchDocument(ctx, name)
		return documentMsg{ticket: ticket, name: name, doc: doc, err: err}
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.layout = computeLayout(width, height)
	m.chat.Width = m.layout.chatWidth
	m.chat.Height = m.layout.chatHeight
	m.doc.Width = m.layout.docWidth
	m.doc.Height = m.layout.docHeight
	m.input.Width = m.layout.chatWidth - 4

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(m.layout.chatWidth-2),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
	}
	m.renderer = renderer
	m.ready = true
	m.refreshChat()
	m.refreshDocument()
}

func (m *Model) refreshChat() {
	snap := m.session.Snapshot()
	var b strings.Builder
	for _, msg := range snap.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.chat.SetContent(b.String())
	m.chat.GotoBottom()
}

func (m *Model) refreshDocument() {
	snap := m.session.Snapshot()
	if !snap.Modal.Open() || snap.Modal.Loading() {
		return
	}
	m.doc.SetContent(wrap(renderHighlighted(snap.Modal.Content, snap.LastQuery), m.layout.docWidth))
}
