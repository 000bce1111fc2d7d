package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hyperjump/counsel/internal/highlight"
	"github.com/hyperjump/counsel/internal/models"
	"github.com/hyperjump/counsel/internal/session"
	"github.com/muesli/reflow/wordwrap"
)

const evidencePlaceholder = "Evidence retrieval will appear here when you ask a question."

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// layout holds panel sizes derived from the terminal size.
type layout struct {
	leftWidth  int
	rightWidth int
	chatWidth  int
	chatHeight int
	docWidth   int
	docHeight  int
	modal      rect
}

func computeLayout(width, height int) layout {
	l := layout{}
	l.leftWidth = max(width*2/5, 24)
	l.rightWidth = max(width-l.leftWidth, 24)
	l.chatWidth = max(l.rightWidth-2, 10)
	// header, blank line, input line
	l.chatHeight = max(height-4, 3)

	boxW := max(width*4/5, 20)
	boxH := max(height*4/5, 6)
	l.modal = rect{x: (width - boxW) / 2, y: (height - boxH) / 2, w: boxW, h: boxH}
	// border (2) + padding (2) horizontally; border (2) + title + hint vertically
	l.docWidth = max(boxW-4, 10)
	l.docHeight = max(boxH-4, 2)
	return l
}

// View renders the screen.
func (m *Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	snap := m.session.Snapshot()
	if snap.Modal.Open() {
		return m.viewModal(snap)
	}
	left := panelStyle.Width(m.layout.leftWidth).Render(m.viewEvidence(snap))
	right := panelStyle.Width(m.layout.rightWidth).Render(m.viewChat(snap))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m *Model) viewEvidence(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("📑 Contract Intelligence"))
	b.WriteString("\n")
	b.WriteString(subheaderStyle.Render("Relevant Clauses"))
	b.WriteString("\n\n")

	inner := m.layout.leftWidth - 6
	if len(snap.Evidence) == 0 {
		b.WriteString(placeholderStyle.Render(wrap(evidencePlaceholder, inner)))
		return clipLines(b.String(), m.height)
	}
	for i, ev := range snap.Evidence {
		b.WriteString(m.viewCard(i, ev, snap.LastQuery, inner))
		b.WriteString("\n")
	}
	if m.focus == focusEvidence {
		b.WriteString(hintStyle.Render("↑/↓ select · enter view full contract · tab chat"))
	} else {
		b.WriteString(hintStyle.Render("tab to browse clauses"))
	}
	return clipLines(b.String(), m.height)
}

func (m *Model) viewCard(i int, ev models.Evidence, query string, width int) string {
	style := cardStyle
	if m.focus == focusEvidence && i == m.selected {
		style = selectedCardStyle
	}
	body := sourceTitleStyle.Render("SOURCE: "+ev.Source) + "\n" +
		wrap(`"`+renderHighlighted(ev.Text, query)+`"`, width)
	if n := highlight.Count(ev.Text, query); n > 0 {
		body += "\n" + hintStyle.Render(fmt.Sprintf("%d match(es)", n))
	}
	return style.Width(width + 2).Render(body)
}

func (m *Model) viewChat(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("⚖️ Legal Assistant"))
	b.WriteString("\n")
	b.WriteString(m.chat.View())
	b.WriteString("\n")
	if snap.Loading {
		b.WriteString(m.spinner.View() + " " + hintStyle.Render(waitPlaceholder))
	} else {
		b.WriteString(m.input.View())
	}
	return b.String()
}

func (m *Model) viewModal(snap session.Snapshot) string {
	var body string
	if snap.Modal.Loading() {
		body = m.spinner.View() + " " + hintStyle.Render("Loading document…")
	} else {
		body = m.doc.View()
	}
	content := headerStyle.Render("📄 "+snap.Modal.Title) + "\n" +
		body + "\n" +
		hintStyle.Render("esc close · ↑/↓ scroll")
	box := modalStyle.Width(m.layout.modal.w - 2).Height(m.layout.modal.h - 2).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderMessage(msg models.Message) string {
	if msg.Role == models.RoleUser {
		return userStyle.Render("You") + "\n" + wrap(msg.Text, m.layout.chatWidth) + "\n"
	}
	text := wrap(msg.Text, m.layout.chatWidth)
	if m.renderer != nil {
		if out, err := m.renderer.Render(msg.Text); err == nil {
			text = strings.Trim(out, "\n")
		}
	}
	return botLabelStyle.Render("Assistant") + "\n" + text + "\n"
}

func renderHighlighted(text, query string) string {
	return highlight.Render(text, query, mark)
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

func clipLines(s string, n int) string {
	if n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}
