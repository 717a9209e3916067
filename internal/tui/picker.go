package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/NamanBalaji/lj/internal/realdebrid"
	"github.com/NamanBalaji/lj/internal/tui/styles"
)

// PickerModel is a multi-select list of remote files. Every entry starts
// checked.
type PickerModel struct {
	files     []realdebrid.TorrentFile
	checked   []bool
	cursor    int
	keys      pickerKeyMap
	help      help.Model
	done      bool
	cancelled bool
}

func NewPicker(files []realdebrid.TorrentFile) PickerModel {
	checked := make([]bool, len(files))
	for i := range checked {
		checked[i] = true
	}

	return PickerModel{
		files:   files,
		checked: checked,
		keys:    newPickerKeyMap(),
		help:    help.New(),
	}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Toggle):
		if len(m.checked) > 0 {
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	case key.Matches(keyMsg, m.keys.All):
		all := !m.allChecked()
		for i := range m.checked {
			m.checked[i] = all
		}
	case key.Matches(keyMsg, m.keys.Confirm):
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Cancel):
		m.cancelled = true
		return m, tea.Quit
	}

	return m, nil
}

func (m PickerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Select files to download"))
	b.WriteString("\n\n")

	for i, f := range m.files {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.Cursor.Render("> ")
		}

		box := "[ ]"
		if m.checked[i] {
			box = styles.Checked.Render("[x]")
		}

		fmt.Fprintf(&b, "%s%s %s %s\n", cursor, box, f.Path, styles.Dim.Render("("+humanize.Bytes(f.Bytes)+")"))
	}

	b.WriteString("\n")
	b.WriteString(styles.Help.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the indices of the checked files. A cancelled picker
// selects nothing.
func (m PickerModel) Selected() []int {
	if m.cancelled {
		return nil
	}

	var picked []int
	for i, c := range m.checked {
		if c {
			picked = append(picked, i)
		}
	}
	return picked
}

func (m PickerModel) allChecked() bool {
	for _, c := range m.checked {
		if !c {
			return false
		}
	}
	return true
}
