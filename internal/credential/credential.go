// Package credential resolves the remote service API key.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/NamanBalaji/lj/internal/logger"
	"github.com/NamanBalaji/lj/internal/tui/styles"
)

var ErrKeyRequired = errors.New("API key is required")

// Prompter asks the user for a key. An empty result means the user gave up.
type Prompter interface {
	PromptKey(ctx context.Context) (string, error)
}

// Source looks the key up in the environment, then the key file, then asks.
type Source struct {
	EnvVar   string
	KeyFile  string
	Prompter Prompter
	Out      io.Writer
}

// Lookup returns a stored key without prompting.
func (s *Source) Lookup() (string, bool) {
	if s.EnvVar != "" {
		if key := strings.TrimSpace(os.Getenv(s.EnvVar)); key != "" {
			logger.Debugf("Using API key from $%s", s.EnvVar)
			return key, true
		}
	}

	data, err := os.ReadFile(s.KeyFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("Failed to read key file %s: %v", s.KeyFile, err)
		}
		return "", false
	}

	key := strings.TrimSpace(string(data))
	return key, key != ""
}

// Key returns the current key, prompting for one and persisting it when none
// is stored.
func (s *Source) Key(ctx context.Context) (string, error) {
	if key, ok := s.Lookup(); ok {
		return key, nil
	}
	if s.Prompter == nil {
		return "", ErrKeyRequired
	}

	s.printf("%s\n", styles.Warning.Render("Real-Debrid API key not found."))
	s.printf("Get your API key from: https://real-debrid.com/apitoken\n\n")
	return s.Ask(ctx)
}

// Ask always prompts and persists the answer.
func (s *Source) Ask(ctx context.Context) (string, error) {
	if s.Prompter == nil {
		return "", ErrKeyRequired
	}

	key, err := s.Prompter.PromptKey(ctx)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrKeyRequired
	}

	if err := s.Save(key); err != nil {
		// The key still works for this run.
		s.printf("%s Failed to save API key: %v\n", styles.Danger.Render("Error:"), err)
	} else {
		s.printf("%s\n", styles.Success.Render("API key saved!"))
	}
	return key, nil
}

func (s *Source) Save(key string) error {
	if err := os.MkdirAll(filepath.Dir(s.KeyFile), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.KeyFile, []byte(strings.TrimSpace(key)), 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	logger.Infof("API key saved to %s", s.KeyFile)
	return nil
}

func (s *Source) printf(format string, args ...any) {
	if s.Out != nil {
		fmt.Fprintf(s.Out, format, args...)
	}
}
