// Package tui holds the small interactive programs the foreground flow uses:
// the file picker and the API key prompt.
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/NamanBalaji/lj/internal/realdebrid"
)

// Terminal runs the interactive programs on the given streams. Nil streams
// fall back to the process's stdin and stdout.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t Terminal) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("terminal program failed: %w", err)
	}
	return final, nil
}

// Select shows the file picker and returns the indices of the chosen files.
func (t Terminal) Select(ctx context.Context, files []realdebrid.TorrentFile) ([]int, error) {
	final, err := t.run(ctx, NewPicker(files))
	if err != nil {
		return nil, err
	}
	return final.(PickerModel).Selected(), nil
}

// PromptKey asks for the API key with masked input.
func (t Terminal) PromptKey(ctx context.Context) (string, error) {
	final, err := t.run(ctx, NewKeyPrompt())
	if err != nil {
		return "", err
	}
	return final.(KeyPromptModel).Value(), nil
}
