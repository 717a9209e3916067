package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/NamanBalaji/lj/internal/tui/styles"
)

// KeyPromptModel reads a secret on one line with masked echo.
type KeyPromptModel struct {
	input     textinput.Model
	done      bool
	cancelled bool
}

func NewKeyPrompt() KeyPromptModel {
	ti := textinput.New()
	ti.Placeholder = "API key"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 50
	ti.Focus()

	return KeyPromptModel{input: ti}
}

func (m KeyPromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m KeyPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m KeyPromptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return styles.Bold.Render("Enter your Real-Debrid API key") + "\n" +
		m.input.View() + "\n" +
		styles.Help.Render("enter to confirm, esc to cancel") + "\n"
}

// Value is the typed key, or empty when the prompt was cancelled.
func (m KeyPromptModel) Value() string {
	if m.cancelled {
		return ""
	}
	return strings.TrimSpace(m.input.Value())
}
