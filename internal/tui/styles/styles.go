package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	green  = lipgloss.Color("#b8bb26")
	yellow = lipgloss.Color("#fabd2f")
	red    = lipgloss.Color("#fb4934")
	aqua   = lipgloss.Color("#8ec07c")
	gray   = lipgloss.Color("#928374")
)

var (
	Bold    = lipgloss.NewStyle().Bold(true)
	Dim     = lipgloss.NewStyle().Foreground(gray).Faint(true)
	Success = lipgloss.NewStyle().Foreground(green)
	Warning = lipgloss.NewStyle().Foreground(yellow)
	Danger  = lipgloss.NewStyle().Foreground(red)
	Info    = lipgloss.NewStyle().Foreground(aqua)

	StatusPending     = lipgloss.NewStyle().Foreground(yellow).Bold(true)
	StatusDownloading = lipgloss.NewStyle().Foreground(aqua).Bold(true)
	StatusCompleted   = lipgloss.NewStyle().Foreground(green).Bold(true)
	StatusFailed      = lipgloss.NewStyle().Foreground(red).Bold(true)
	StatusCancelled   = lipgloss.NewStyle().Foreground(gray).Faint(true)

	// Multi-select picker.
	Cursor   = lipgloss.NewStyle().Foreground(yellow).Bold(true)
	Checked  = lipgloss.NewStyle().Foreground(green)
	Help     = lipgloss.NewStyle().Foreground(gray)
	Title    = lipgloss.NewStyle().Foreground(aqua).Bold(true)
	BarColor = string(green)
)

// Step renders the "[n/total]" prefix used while talking to the remote service.
func Step(n, total int) string {
	return Dim.Render(fmt.Sprintf("[%d/%d]", n, total))
}
