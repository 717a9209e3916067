package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestKeyPromptValue(t *testing.T) {
	m := typeText(NewKeyPrompt(), "abc123")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotNil(t, cmd)
	assert.Equal(t, "abc123", m.(KeyPromptModel).Value())
}

func TestKeyPromptMasksInput(t *testing.T) {
	m := typeText(NewKeyPrompt(), "secret")
	assert.NotContains(t, m.View(), "secret")
}

func TestKeyPromptCancel(t *testing.T) {
	m := typeText(NewKeyPrompt(), "abc")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.(KeyPromptModel).Value())
}
