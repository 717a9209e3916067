package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/NamanBalaji/lj/internal/realdebrid"
)

var testFiles = []realdebrid.TorrentFile{
	{ID: 1, Path: "/e01.mkv", Bytes: 2_000_000},
	{ID: 2, Path: "/e02.mkv", Bytes: 3_000_000},
	{ID: 3, Path: "/e03.mkv", Bytes: 4_000_000},
}

func press(m tea.Model, keys ...tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(k)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyA     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}
)

func TestPickerStartsAllChecked(t *testing.T) {
	m, cmd := press(NewPicker(testFiles), keyEnter)
	assert.NotNil(t, cmd)
	assert.Equal(t, []int{0, 1, 2}, m.(PickerModel).Selected())
}

func TestPickerToggle(t *testing.T) {
	m, _ := press(NewPicker(testFiles), keyDown, keySpace, keyEnter)
	assert.Equal(t, []int{0, 2}, m.(PickerModel).Selected())
}

func TestPickerCursorStaysInBounds(t *testing.T) {
	m, _ := press(NewPicker(testFiles), keyUp, keyDown, keyDown, keyDown, keyDown, keySpace, keyEnter)
	assert.Equal(t, []int{0, 1}, m.(PickerModel).Selected())
}

func TestPickerToggleAll(t *testing.T) {
	m, _ := press(NewPicker(testFiles), keyA, keyEnter)
	assert.Empty(t, m.(PickerModel).Selected())

	m, _ = press(NewPicker(testFiles), keySpace, keyA, keyEnter)
	assert.Equal(t, []int{0, 1, 2}, m.(PickerModel).Selected())
}

func TestPickerCancel(t *testing.T) {
	m, cmd := press(NewPicker(testFiles), keyEsc)
	assert.NotNil(t, cmd)
	assert.Nil(t, m.(PickerModel).Selected())
}

func TestPickerView(t *testing.T) {
	view := NewPicker(testFiles).View()
	assert.Contains(t, view, "/e02.mkv")
	assert.Contains(t, view, "3.0 MB")
	assert.Contains(t, view, "[x]")
}
