// Package worker runs one transfer in a detached process and reports every
// outcome through the job record.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/NamanBalaji/lj/internal/job"
	"github.com/NamanBalaji/lj/internal/journal"
	"github.com/NamanBalaji/lj/internal/logger"
)

const bufferSize = 32 * 1024

var (
	// ErrCancelled is returned by a transfer that saw a cancel request in the
	// record. It ends in the Cancelled state, not Failed.
	ErrCancelled = errors.New("cancelled")

	errRemoved = errors.New("record removed")
)

// closedError stops a transfer whose record another writer already moved to a
// terminal status.
type closedError struct {
	status job.Status
}

func (e *closedError) Error() string {
	return "record already " + e.status.String()
}

type Options struct {
	CheckpointInterval time.Duration
	UserAgent          string
}

func DefaultOptions() Options {
	return Options{
		CheckpointInterval: 500 * time.Millisecond,
		UserAgent:          "lj/1.0",
	}
}

// Worker executes the transfer for a single job id.
type Worker struct {
	store   *job.Store
	client  *http.Client
	journal *journal.Journal
	opts    Options
	pid     int
}

// New builds a worker. client must not carry a request timeout; the transfer
// is bounded only by the context. journal may be nil.
func New(store *job.Store, client *http.Client, j *journal.Journal, opts Options) *Worker {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.CheckpointInterval <= 0 {
		opts.CheckpointInterval = DefaultOptions().CheckpointInterval
	}

	return &Worker{
		store:   store,
		client:  client,
		journal: j,
		opts:    opts,
		pid:     os.Getpid(),
	}
}

// Run claims the job, streams it to disk and persists the outcome. Cancelling
// ctx (a termination signal) ends the job as Cancelled when the record asks for
// it, else as Failed("interrupted").
func (w *Worker) Run(ctx context.Context, id string) error {
	d, ok := w.store.Load(id)
	if !ok {
		logger.Errorf("Download not found: %s", id)
		return fmt.Errorf("%w: %s", job.ErrNotFound, id)
	}
	if d.Status.Terminal() {
		logger.Infof("Download %s is already %s, nothing to do", id, d.Status)
		return nil
	}

	d.MarkDownloading(w.pid)
	w.save(d)
	w.event(id, journal.LevelInfo, fmt.Sprintf("started (pid %d)", w.pid))
	logger.Infof("Downloading %s to %s", d.Filename, d.Path())

	err := w.transfer(ctx, d)
	w.finish(ctx, d, err)
	return nil
}

func (w *Worker) transfer(ctx context.Context, d *job.Download) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return fmt.Errorf("Request failed: %w", err)
	}
	if w.opts.UserAgent != "" {
		req.Header.Set("User-Agent", w.opts.UserAgent)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("Request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	total := d.TotalBytes
	if resp.ContentLength > 0 {
		total = uint64(resp.ContentLength)
	}
	d.TotalBytes = total

	file, err := os.Create(d.Path())
	if err != nil {
		return fmt.Errorf("Failed to create file: %w", err)
	}
	defer file.Close()

	var (
		buf        = make([]byte, bufferSize)
		downloaded uint64
		lastBytes  uint64
		lastCheck  = time.Now()
	)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return fmt.Errorf("Write error: %w", err)
			}
			downloaded += uint64(n)
		}

		if elapsed := time.Since(lastCheck); elapsed >= w.opts.CheckpointInterval {
			if err := w.checkpoint(d, downloaded, float64(downloaded-lastBytes)/elapsed.Seconds()); err != nil {
				return err
			}
			lastCheck = time.Now()
			lastBytes = downloaded
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("Download error: %w", readErr)
		}
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("Write error: %w", err)
	}

	d.DownloadedBytes = downloaded
	return nil
}

// checkpoint re-reads the record for a cancel request or a status set by
// another writer, then persists progress.
func (w *Worker) checkpoint(d *job.Download, downloaded uint64, speed float64) error {
	current, ok := w.store.Load(d.ID)
	if !ok {
		return errRemoved
	}
	if current.Status.Kind == job.Cancelled {
		return ErrCancelled
	}
	if !current.Status.CanTransition(d.Status) {
		return &closedError{status: current.Status}
	}

	d.DownloadedBytes = downloaded
	if d.TotalBytes > 0 && downloaded > d.TotalBytes {
		d.TotalBytes = downloaded
	}
	d.Speed = speed
	w.save(d)

	logger.Debugf("%s: %s / %s @ %s/s", d.ID,
		humanize.Bytes(downloaded), humanize.Bytes(d.TotalBytes), humanize.Bytes(uint64(speed)))
	return nil
}

func (w *Worker) finish(ctx context.Context, d *job.Download, err error) {
	current, ok := w.store.Load(d.ID)
	var closed *closedError
	switch {
	case errors.Is(err, errRemoved) || !ok:
		// The record was removed from the dashboard; do not bring it back.
		w.removePartial(d)
		logger.Infof("Download %s removed while running, stopping", d.ID)
		return
	case errors.Is(err, ErrCancelled) || current.Status.Kind == job.Cancelled:
		d.MarkCancelled()
		w.removePartial(d)
		w.event(d.ID, journal.LevelInfo, "cancelled")
		logger.Infof("Download %s cancelled", d.ID)
	case current.Status.Terminal():
		// Another writer already closed the job.
		logger.Warnf("Download %s stopped but record is %s, leaving it", d.ID, current.Status)
		return
	case errors.As(err, &closed):
		// A progress save raced the other writer; put its status back.
		d.Status = closed.status
		d.Speed = 0
		d.PID = nil
		logger.Warnf("Download %s stopped, record was set to %s", d.ID, closed.status)
	case err == nil:
		d.MarkCompleted()
		w.event(d.ID, journal.LevelInfo, "completed ("+humanize.Bytes(d.TotalBytes)+")")
		logger.Infof("Download %s completed: %s", d.ID, humanize.Bytes(d.TotalBytes))
	case ctx.Err() != nil:
		d.MarkFailed("interrupted")
		w.event(d.ID, journal.LevelWarn, "failed: interrupted")
		logger.Warnf("Download %s interrupted", d.ID)
	default:
		d.MarkFailed(err.Error())
		w.event(d.ID, journal.LevelError, "failed: "+err.Error())
		logger.Errorf("Download %s failed: %v", d.ID, err)
	}

	w.save(d)
}

func (w *Worker) removePartial(d *job.Download) {
	if err := os.Remove(d.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to remove partial file %s: %v", d.Path(), err)
	}
}

// save is best-effort: a lost write is repaired by the next checkpoint or by
// reconciliation.
func (w *Worker) save(d *job.Download) {
	if err := w.store.Save(d); err != nil {
		logger.Errorf("Failed to save download %s: %v", d.ID, err)
	}
}

func (w *Worker) event(id, level, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.journal.Add(ctx, id, level, msg); err != nil {
		logger.Warnf("Failed to journal event for %s: %v", id, err)
	}
}
