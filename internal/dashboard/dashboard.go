// Package dashboard is the supervisory view over every persisted job. It
// repairs records whose worker died, lists jobs and applies cancel, remove and
// clear commands. It never touches a running job's byte counters.
package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/NamanBalaji/lj/internal/job"
	"github.com/NamanBalaji/lj/internal/journal"
	"github.com/NamanBalaji/lj/internal/logger"
	"github.com/NamanBalaji/lj/internal/process"
	"github.com/NamanBalaji/lj/internal/tui/styles"
)

const (
	reasonProcessDied = "process died"

	exitWait = 2 * time.Second
	exitPoll = 50 * time.Millisecond
)

var ErrNoSuchDownload = errors.New("no such download")

type Dashboard struct {
	store   *job.Store
	procs   process.Table
	journal *journal.Journal
	in      io.Reader
	out     io.Writer

	// ids maps display positions to job ids as of the last render.
	ids []string
}

func New(store *job.Store, procs process.Table, j *journal.Journal, in io.Reader, out io.Writer) *Dashboard {
	return &Dashboard{
		store:   store,
		procs:   procs,
		journal: j,
		in:      in,
		out:     out,
	}
}

// Reconcile repairs Downloading records whose worker is gone and returns the
// number of records repaired.
func (d *Dashboard) Reconcile() int {
	repaired := 0
	for _, dl := range d.store.LoadAll() {
		if dl.Status.Kind != job.Downloading {
			continue
		}
		if dl.PID != nil && d.procs.Alive(*dl.PID) {
			continue
		}

		if dl.TotalBytes > 0 && dl.DownloadedBytes >= dl.TotalBytes {
			dl.MarkCompleted()
		} else {
			dl.MarkFailed(reasonProcessDied)
		}

		if err := d.store.Save(dl); err != nil {
			logger.Errorf("Failed to save repaired download %s: %v", dl.ID, err)
			continue
		}
		logger.Infof("Reconciled %s to %s", dl.ID, dl.Status)
		d.event(dl.ID, journal.LevelWarn, "reconciled: "+dl.Status.String())
		repaired++
	}
	return repaired
}

// Refresh reconciles, reloads and renders every job.
func (d *Dashboard) Refresh() []*job.Download {
	d.Reconcile()
	downloads := d.store.LoadAll()

	d.ids = make([]string, len(downloads))
	for i, dl := range downloads {
		d.ids[i] = dl.ID
	}

	fmt.Fprint(d.out, Render(downloads))
	return downloads
}

// Run shows the jobs and processes commands until q, end of input or ctx is
// done.
func (d *Dashboard) Run(ctx context.Context) error {
	if downloads := d.Refresh(); len(downloads) == 0 {
		return nil
	}
	fmt.Fprint(d.out, actionsHelp())

	scanner := bufio.NewScanner(d.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(d.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		cmd, err := Parse(scanner.Text())
		if err != nil {
			fmt.Fprintln(d.out, styles.Danger.Render("Unknown command"))
			continue
		}

		switch cmd.Kind {
		case CmdNone:
		case CmdQuit:
			return nil
		case CmdClear:
			d.Clear()
			fmt.Fprint(d.out, "\033[H\033[2J")
			if downloads := d.Refresh(); len(downloads) == 0 {
				return nil
			}
			fmt.Fprint(d.out, actionsHelp())
		case CmdCancel:
			cancelled, err := d.Cancel(cmd.N)
			switch {
			case err != nil:
				fmt.Fprintln(d.out, styles.Danger.Render(err.Error()))
			case cancelled:
				fmt.Fprintln(d.out, styles.Warning.Render("Cancelled"))
			default:
				fmt.Fprintln(d.out, styles.Dim.Render("Not downloading, nothing to cancel"))
			}
		case CmdRemove:
			if err := d.Remove(cmd.N); err != nil {
				fmt.Fprintln(d.out, styles.Danger.Render(err.Error()))
				continue
			}
			fmt.Fprintln(d.out, styles.Success.Render("Removed"))
		case CmdLog:
			if err := d.showLog(ctx, cmd.N); err != nil {
				fmt.Fprintln(d.out, styles.Danger.Render(err.Error()))
			}
		}
	}
}

func (d *Dashboard) id(n int) (string, error) {
	if n <= 0 || n > len(d.ids) {
		return "", fmt.Errorf("%w: #%d", ErrNoSuchDownload, n)
	}
	return d.ids[n-1], nil
}

// Cancel stops the job at display position n if it is Downloading: the record
// becomes Cancelled first so the worker sees it, then the worker is signalled
// and the partial file removed. Any other status is left alone.
func (d *Dashboard) Cancel(n int) (bool, error) {
	id, err := d.id(n)
	if err != nil {
		return false, err
	}

	dl, ok := d.store.Load(id)
	if !ok {
		return false, fmt.Errorf("%w: #%d", ErrNoSuchDownload, n)
	}
	if dl.Status.Kind != job.Downloading {
		return false, nil
	}

	pid := dl.PID
	dl.MarkCancelled()
	if err := d.store.Save(dl); err != nil {
		return false, fmt.Errorf("failed to save download: %w", err)
	}

	if pid != nil {
		if err := d.procs.Terminate(*pid); err != nil {
			logger.Warnf("Failed to signal worker %d: %v", *pid, err)
		}
		d.settleCancel(id, *pid)
	}
	if err := os.Remove(dl.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to remove partial file %s: %v", dl.Path(), err)
	}

	logger.Infof("Cancelled %s", id)
	d.event(id, journal.LevelInfo, "cancelled from dashboard")
	return true, nil
}

// settleCancel waits for the worker to exit and writes Cancelled again if a
// progress save overwrote it before the worker saw the request.
func (d *Dashboard) settleCancel(id string, pid int) {
	deadline := time.Now().Add(exitWait)
	for d.procs.Alive(pid) && time.Now().Before(deadline) {
		time.Sleep(exitPoll)
	}

	dl, ok := d.store.Load(id)
	if !ok || dl.Status.Kind == job.Cancelled {
		return
	}
	logger.Warnf("Download %s was %s after cancel, marking Cancelled", id, dl.Status)
	dl.MarkCancelled()
	if err := d.store.Save(dl); err != nil {
		logger.Errorf("Failed to save download %s: %v", id, err)
	}
}

// Remove deletes the record at display position n whatever its status.
func (d *Dashboard) Remove(n int) error {
	id, err := d.id(n)
	if err != nil {
		return err
	}

	d.store.Delete(id)
	d.purge(id)
	logger.Infof("Removed %s", id)
	return nil
}

// Clear deletes every terminal record and returns how many were removed.
func (d *Dashboard) Clear() int {
	var removed []string
	for _, dl := range d.store.LoadAll() {
		if dl.Status.Terminal() {
			d.store.Delete(dl.ID)
			removed = append(removed, dl.ID)
		}
	}

	d.purge(removed...)
	logger.Infof("Cleared %d finished download(s)", len(removed))
	return len(removed)
}

func (d *Dashboard) showLog(ctx context.Context, n int) error {
	id, err := d.id(n)
	if err != nil {
		return err
	}

	events, err := d.journal.List(ctx, id, 20)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(d.out, styles.Dim.Render("No events"))
		return nil
	}
	for _, e := range events {
		fmt.Fprintln(d.out, "  "+e.String())
	}
	return nil
}

func (d *Dashboard) event(id, level, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.journal.Add(ctx, id, level, msg); err != nil {
		logger.Warnf("Failed to journal event for %s: %v", id, err)
	}
}

func (d *Dashboard) purge(ids ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.journal.Purge(ctx, ids...); err != nil {
		logger.Warnf("Failed to purge journal: %v", err)
	}
}
