package job

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const idFragmentLen = 10

// Download is the persisted record of one file transfer. It is the only
// state shared between the spawning process, the worker and the dashboard.
type Download struct {
	ID              string  `json:"id"`
	Filename        string  `json:"filename"`
	URL             string  `json:"url"`
	TargetDir       string  `json:"target_dir"`
	TotalBytes      uint64  `json:"total_bytes"`
	DownloadedBytes uint64  `json:"downloaded_bytes"`
	Speed           float64 `json:"speed"`
	Status          Status  `json:"status"`
	StartedAt       int64   `json:"started_at"`
	PID             *int    `json:"pid"`
}

// New creates a Pending record for a resolved link.
func New(filename, url, targetDir string, totalBytes uint64, now time.Time) *Download {
	return &Download{
		ID:         NewID(now, filename),
		Filename:   filename,
		URL:        url,
		TargetDir:  targetDir,
		TotalBytes: totalBytes,
		Status:     StatusPending,
		StartedAt:  now.Unix(),
	}
}

// NewID derives an id from the creation time in milliseconds and the first
// few characters of the filename.
func NewID(now time.Time, filename string) string {
	fragment := []rune(filename)
	if len(fragment) > idFragmentLen {
		fragment = fragment[:idFragmentLen]
	}

	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, string(fragment))

	return fmt.Sprintf("%d-%s", now.UnixMilli(), clean)
}

// Path is the destination file of the transfer.
func (d *Download) Path() string {
	return filepath.Join(d.TargetDir, d.Filename)
}

// Fraction returns downloaded/total in [0,1], or 0 when the size is unknown.
func (d *Download) Fraction() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	f := float64(d.DownloadedBytes) / float64(d.TotalBytes)
	if f > 1 {
		return 1
	}
	return f
}

// MarkDownloading hands ownership to the process pid.
func (d *Download) MarkDownloading(pid int) {
	d.Status = StatusDownloading
	d.PID = &pid
}

// MarkCompleted sets the final counters. An unknown size becomes the number of
// bytes actually received.
func (d *Download) MarkCompleted() {
	if d.TotalBytes == 0 || d.DownloadedBytes > d.TotalBytes {
		d.TotalBytes = d.DownloadedBytes
	}
	d.DownloadedBytes = d.TotalBytes
	d.Status = StatusCompleted
	d.Speed = 0
	d.PID = nil
}

func (d *Download) MarkFailed(reason string) {
	d.Status = StatusFailed(reason)
	d.Speed = 0
	d.PID = nil
}

func (d *Download) MarkCancelled() {
	d.Status = StatusCancelled
	d.Speed = 0
	d.PID = nil
}
