package worker

import (
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/lj/internal/job"
)

func TestSpawnMarksDownloading(t *testing.T) {
	exe, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}

	store := job.NewStore(t.TempDir())
	d := job.New("movie.mkv", "https://cdn.example/movie.mkv", t.TempDir(), 0, time.Now())
	require.NoError(t, store.Save(d))

	s := &Spawner{store: store, exe: exe}
	pid, err := s.Spawn(d)
	require.NoError(t, err)
	assert.Positive(t, pid)

	got, ok := store.Load(d.ID)
	require.True(t, ok)
	assert.Equal(t, job.StatusDownloading, got.Status)
	require.NotNil(t, got.PID)
	assert.Equal(t, pid, *got.PID)
}

func TestSpawnLeavesClaimedRecord(t *testing.T) {
	exe, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}

	store := job.NewStore(t.TempDir())
	d := job.New("movie.mkv", "https://cdn.example/movie.mkv", t.TempDir(), 0, time.Now())
	d.MarkCompleted()
	require.NoError(t, store.Save(d))

	s := &Spawner{store: store, exe: exe}
	_, err = s.Spawn(d)
	require.NoError(t, err)

	got, _ := store.Load(d.ID)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Nil(t, got.PID)
}

func TestSpawnFailureLeavesPending(t *testing.T) {
	store := job.NewStore(t.TempDir())
	d := job.New("movie.mkv", "https://cdn.example/movie.mkv", t.TempDir(), 0, time.Now())
	require.NoError(t, store.Save(d))

	s := &Spawner{store: store, exe: filepath.Join(t.TempDir(), "missing")}
	_, err := s.Spawn(d)
	assert.Error(t, err)

	got, _ := store.Load(d.ID)
	assert.Equal(t, job.StatusPending, got.Status)
	assert.Nil(t, got.PID)
}
