package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#7C9CFF")
	muted  = lipgloss.Color("#7A7A7A")

	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E6E6E6"))
	subheaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	placeholderStyle = lipgloss.NewStyle().Italic(true).Foreground(muted)
	hintStyle        = lipgloss.NewStyle().Foreground(muted)
	userStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ECE6A"))
	botLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	highlightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#F5D76E"))
	sourceTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5A97F"))

	panelStyle = lipgloss.NewStyle().Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
	selectedCardStyle = cardStyle.BorderForeground(accent)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)

func mark(s string) string {
	return highlightStyle.Render(s)
}
