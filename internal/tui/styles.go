package tui // import "github.com/toeirei/gitswitch/internal/tui"

import "github.com/charmbracelet/lipgloss"

const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // Teal
	colorSpecial   = lipgloss.Color("208") // Orange
	colorError     = lipgloss.Color("196")
	colorSuccess   = lipgloss.Color("40")
	colorFocus     = lipgloss.Color("170")
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	helpStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	specialStyle = lipgloss.NewStyle().Foreground(colorSpecial)

	bannerStyle = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	titleStyle  = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true).
			Padding(1, 0)

	itemStyle         = lipgloss.NewStyle()
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorHighlight)
	focusedStyle      = lipgloss.NewStyle().Foreground(colorFocus)

	dialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorSpecial).
			Padding(1, 2).
			Width(60)

	keyBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)
)
