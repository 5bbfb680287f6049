package monitor

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("196") // Red
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

var connectedStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

var disconnectedStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true)

var timeStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

var kindStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Width(10)

var sourceStyle = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

var countsStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorSecondary).
	Padding(0, 1)

var helpStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")).
	Padding(1, 0, 0, 0)
