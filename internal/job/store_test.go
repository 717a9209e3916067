package job_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/lj/internal/job"
)

func newTestStore(t *testing.T) *job.Store {
	t.Helper()
	return job.NewStore(filepath.Join(t.TempDir(), "downloads"))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	pid := 4242
	d := &job.Download{
		ID:              "1700000000000-movie.mkv",
		Filename:        "movie.mkv",
		URL:             "https://example.com/movie.mkv",
		TargetDir:       "/tmp/out",
		TotalBytes:      5000,
		DownloadedBytes: 1200,
		Speed:           512.5,
		Status:          job.StatusDownloading,
		StartedAt:       1700000000,
		PID:             &pid,
	}

	require.NoError(t, store.Save(d))

	found, ok := store.Load(d.ID)
	require.True(t, ok)
	assert.Equal(t, d, found)
}

func TestSaveFailedStatusRoundTrip(t *testing.T) {
	store := newTestStore(t)

	d := job.New("a.bin", "https://example.com/a.bin", "/tmp", 10, time.Unix(1700000000, 0))
	d.MarkFailed("HTTP error: 404 Not Found")

	require.NoError(t, store.Save(d))

	found, ok := store.Load(d.ID)
	require.True(t, ok)
	assert.Equal(t, job.StatusFailed("HTTP error: 404 Not Found"), found.Status)
	assert.Nil(t, found.PID)
}

func TestSaveIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	d := job.New("a.bin", "https://example.com/a.bin", "/tmp", 10, time.Now())
	require.NoError(t, store.Save(d))
	require.NoError(t, store.Save(d))

	assert.Len(t, store.LoadAll(), 1)
}

func TestLoadMissingAndMalformed(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Load("does-not-exist")
	assert.False(t, ok)

	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{not json"), 0o644))

	_, ok = store.Load("broken")
	assert.False(t, ok)

	_, ok = store.Load("../escape")
	assert.False(t, ok)
}

func TestLoadAllSortsByStartTime(t *testing.T) {
	store := newTestStore(t)

	late := job.New("late.bin", "u", "/tmp", 0, time.Unix(300, 0))
	early := job.New("early.bin", "u", "/tmp", 0, time.Unix(100, 0))
	middle := job.New("middle.bin", "u", "/tmp", 0, time.Unix(200, 0))

	for _, d := range []*job.Download{late, early, middle} {
		require.NoError(t, store.Save(d))
	}

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "garbage.json"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("ignored"), 0o644))

	all := store.LoadAll()
	require.Len(t, all, 3)
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, middle.ID, all[1].ID)
	assert.Equal(t, late.ID, all[2].ID)
}

func TestLoadAllMissingDirectory(t *testing.T) {
	store := job.NewStore(filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, store.LoadAll())
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	d := job.New("a.bin", "u", "/tmp", 0, time.Now())
	require.NoError(t, store.Save(d))

	store.Delete(d.ID)
	_, ok := store.Load(d.ID)
	assert.False(t, ok)

	assert.NotPanics(t, func() { store.Delete(d.ID) })
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)

	d := job.New("a.bin", "u", "/tmp", 0, time.Now())
	for i := 0; i < 5; i++ {
		d.DownloadedBytes = uint64(i)
		require.NoError(t, store.Save(d))
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
