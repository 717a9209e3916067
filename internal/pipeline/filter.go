package pipeline

import (
	"strings"

	"github.com/NamanBalaji/lj/internal/realdebrid"
)

// ChoiceMode says how the file selection was reached.
type ChoiceMode int

const (
	ChoiceNone ChoiceMode = iota
	ChoiceSingle
	ChoiceAll
	ChoiceManual
)

// Choice is the outcome of the automatic part of file selection. For
// ChoiceManual, Candidates holds the files to offer the user and IDs is empty.
type Choice struct {
	Mode       ChoiceMode
	IDs        []int
	Candidates []realdebrid.TorrentFile
}

// ValidFiles drops samples and anything not larger than minSize.
func ValidFiles(files []realdebrid.TorrentFile, minSize uint64) []realdebrid.TorrentFile {
	var valid []realdebrid.TorrentFile
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Path), "sample") {
			continue
		}
		if f.Bytes <= minSize {
			continue
		}
		valid = append(valid, f)
	}
	return valid
}

// Choose applies the selection policy: one valid file is taken as is, no
// valid file falls back to every raw file, several valid files go to the user.
//
// The fallback deliberately includes the samples and tiny files the filter
// rejected.
func Choose(files []realdebrid.TorrentFile, minSize uint64) Choice {
	valid := ValidFiles(files, minSize)

	switch {
	case len(valid) == 1:
		return Choice{Mode: ChoiceSingle, IDs: []int{valid[0].ID}}
	case len(valid) == 0 && len(files) == 0:
		return Choice{Mode: ChoiceNone}
	case len(valid) == 0:
		ids := make([]int, len(files))
		for i, f := range files {
			ids[i] = f.ID
		}
		return Choice{Mode: ChoiceAll, IDs: ids}
	default:
		return Choice{Mode: ChoiceManual, Candidates: valid}
	}
}

// BaseName is the last path element of a remote file path.
func BaseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return path
}
