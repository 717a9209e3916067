package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NamanBalaji/lj/internal/logger"
)

const recordExt = ".json"

var ErrNotFound = errors.New("download not found")

// Store keeps one pretty-printed JSON file per download. There is no locking:
// every write replaces the whole record and the last writer wins.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) (string, bool) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", false
	}
	return filepath.Join(s.dir, id+recordExt), true
}

// Save creates or overwrites the record. The file is written next to its final
// name and renamed into place so readers never observe a torn record.
func (s *Store) Save(d *Download) error {
	path, ok := s.path(d.ID)
	if !ok {
		return fmt.Errorf("invalid download id %q", d.ID)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal download: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+d.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close record: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to save download: %w", err)
	}

	return nil
}

// Load returns the record for id. A missing or unreadable record is reported
// as absent.
func (s *Store) Load(id string) (*Download, bool) {
	path, ok := s.path(id)
	if !ok {
		return nil, false
	}
	return readRecord(path)
}

// LoadAll returns every readable record ordered by creation time.
func (s *Store) LoadAll() []*Download {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Failed to list store %s: %v", s.dir, err)
		}
		return nil
	}

	var downloads []*Download
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		if d, ok := readRecord(filepath.Join(s.dir, name)); ok {
			downloads = append(downloads, d)
		}
	}

	sort.SliceStable(downloads, func(i, j int) bool {
		if downloads[i].StartedAt != downloads[j].StartedAt {
			return downloads[i].StartedAt < downloads[j].StartedAt
		}
		return downloads[i].ID < downloads[j].ID
	})

	return downloads
}

// Delete removes the record. Absence is not an error.
func (s *Store) Delete(id string) {
	path, ok := s.path(id)
	if !ok {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Failed to delete download %s: %v", id, err)
	}
}

func readRecord(path string) (*Download, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debugf("Failed to read record %s: %v", path, err)
		}
		return nil, false
	}

	var d Download
	if err := json.Unmarshal(data, &d); err != nil {
		logger.Debugf("Ignoring malformed record %s: %v", path, err)
		return nil, false
	}

	return &d, true
}
