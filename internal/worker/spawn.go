package worker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/NamanBalaji/lj/internal/job"
	"github.com/NamanBalaji/lj/internal/journal"
	"github.com/NamanBalaji/lj/internal/logger"
)

// Flag is the hidden argument that turns an invocation into a worker.
const Flag = "--bg-download"

// Spawner starts one detached worker process per job by re-invoking the
// program's own executable.
type Spawner struct {
	store   *job.Store
	journal *journal.Journal
	exe     string
}

func NewSpawner(store *job.Store, j *journal.Journal) (*Spawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &Spawner{store: store, journal: j, exe: exe}, nil
}

// Spawn starts the worker for d and returns its pid. The child gets null
// stdio and its own session so it outlives the terminal. On failure the job
// stays Pending.
func (s *Spawner) Spawn(d *job.Download) (int, error) {
	cmd := exec.Command(s.exe, Flag, d.ID)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		logger.Errorf("Failed to spawn worker for %s: %v", d.ID, err)
		return 0, fmt.Errorf("failed to spawn download process: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		logger.Warnf("Failed to release worker %d: %v", pid, err)
	}

	// The worker may already have claimed the record; only a Pending record
	// is overwritten.
	current, ok := s.store.Load(d.ID)
	if ok && current.Status.Kind == job.Pending {
		current.MarkDownloading(pid)
		if err := s.store.Save(current); err != nil {
			logger.Warnf("Failed to save download %s: %v", d.ID, err)
		}
		*d = *current
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.journal.Add(ctx, d.ID, journal.LevelInfo, fmt.Sprintf("spawned worker pid %d", pid)); err != nil {
		logger.Warnf("Failed to journal event for %s: %v", d.ID, err)
	}

	logger.Infof("Spawned worker %d for %s", pid, d.ID)
	return pid, nil
}
