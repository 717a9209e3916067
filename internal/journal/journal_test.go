package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAddAndList(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Add(ctx, "a", LevelInfo, "spawned"))
	require.NoError(t, j.Add(ctx, "b", LevelInfo, "spawned"))
	require.NoError(t, j.Add(ctx, "a", LevelInfo, "started"))
	require.NoError(t, j.Add(ctx, "a", LevelError, "failed: connection reset"))

	events, err := j.List(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "spawned", events[0].Message)
	assert.Equal(t, "failed: connection reset", events[2].Message)
	assert.Equal(t, LevelError, events[2].Level)
	assert.False(t, events[0].CreatedAt.IsZero())

	recent, err := j.List(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "started", recent[0].Message)
}

func TestPurge(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Add(ctx, "a", LevelInfo, "x"))
	require.NoError(t, j.Add(ctx, "b", LevelInfo, "y"))
	require.NoError(t, j.Add(ctx, "c", LevelInfo, "z"))

	require.NoError(t, j.Purge(ctx, "a", "c"))
	require.NoError(t, j.Purge(ctx))

	for id, want := range map[string]int{"a": 0, "b": 1, "c": 0} {
		events, err := j.List(ctx, id, 0)
		require.NoError(t, err)
		assert.Len(t, events, want, id)
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Add(ctx, "a", LevelInfo, "spawned"))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	events, err := j.List(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestNilJournal(t *testing.T) {
	var j *Journal
	ctx := context.Background()

	assert.NoError(t, j.Add(ctx, "a", LevelInfo, "x"))
	events, err := j.List(ctx, "a", 0)
	assert.NoError(t, err)
	assert.Nil(t, events)
	assert.NoError(t, j.Purge(ctx, "a"))
	assert.NoError(t, j.Close())
}
