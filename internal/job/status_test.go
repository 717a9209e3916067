package job_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/lj/internal/job"
)

func TestStatusJSONShape(t *testing.T) {
	tests := []struct {
		status job.Status
		want   string
	}{
		{job.StatusPending, `"Pending"`},
		{job.StatusDownloading, `"Downloading"`},
		{job.StatusCompleted, `"Completed"`},
		{job.StatusCancelled, `"Cancelled"`},
		{job.StatusFailed("process died"), `{"Failed":"process died"}`},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			b, err := json.Marshal(tt.status)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			var back job.Status
			require.NoError(t, json.Unmarshal(b, &back))
			assert.Equal(t, tt.status, back)
		})
	}
}

func TestStatusUnmarshalRejectsUnknown(t *testing.T) {
	var s job.Status
	assert.Error(t, json.Unmarshal([]byte(`"Paused"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"Exploded":"x"}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, job.StatusPending.CanTransition(job.StatusDownloading))
	assert.True(t, job.StatusPending.CanTransition(job.StatusCancelled))
	assert.True(t, job.StatusDownloading.CanTransition(job.StatusCompleted))
	assert.True(t, job.StatusDownloading.CanTransition(job.StatusFailed("x")))
	assert.True(t, job.StatusDownloading.CanTransition(job.StatusDownloading))

	assert.False(t, job.StatusDownloading.CanTransition(job.StatusPending))
	assert.False(t, job.StatusCompleted.CanTransition(job.StatusDownloading))
	assert.False(t, job.StatusCancelled.CanTransition(job.StatusCompleted))
	assert.False(t, job.StatusFailed("x").CanTransition(job.StatusPending))
}

func TestMarkersKeepPIDInvariant(t *testing.T) {
	d := job.New("movie.mkv", "u", "/tmp", 100, time.Now())
	assert.Nil(t, d.PID)

	d.MarkDownloading(99)
	require.NotNil(t, d.PID)
	assert.Equal(t, 99, *d.PID)

	d.DownloadedBytes = 40
	d.Speed = 10
	d.MarkFailed("boom")
	assert.Nil(t, d.PID)
	assert.Zero(t, d.Speed)

	d.MarkDownloading(100)
	d.MarkCancelled()
	assert.Nil(t, d.PID)
	assert.Equal(t, job.StatusCancelled, d.Status)
}

func TestMarkCompleted(t *testing.T) {
	d := job.New("movie.mkv", "u", "/tmp", 100, time.Now())
	d.MarkDownloading(1)
	d.DownloadedBytes = 60
	d.MarkCompleted()
	assert.Equal(t, uint64(100), d.DownloadedBytes)
	assert.Equal(t, uint64(100), d.TotalBytes)

	unknown := job.New("x", "u", "/tmp", 0, time.Now())
	unknown.DownloadedBytes = 77
	unknown.MarkCompleted()
	assert.Equal(t, uint64(77), unknown.TotalBytes)
	assert.Equal(t, uint64(77), unknown.DownloadedBytes)
}

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "1700000000123-movie.mkv", job.NewID(now, "movie.mkv"))
	assert.Equal(t, "1700000000123-A.Long.Fil", job.NewID(now, "A.Long.File.Name.mkv"))
	assert.Equal(t, "1700000000123-dir_file", job.NewID(now, "dir/file"))
	assert.Equal(t, "1700000000123-dir_file", job.NewID(now, `dir\file`))
	assert.Equal(t, "1700000000123-a_b_c", job.NewID(now, `a/b\c`))
	assert.Equal(t, "1700000000123-éééééééééé", job.NewID(now, "éééééééééééé"))
}

func TestFraction(t *testing.T) {
	d := &job.Download{TotalBytes: 0, DownloadedBytes: 10}
	assert.Zero(t, d.Fraction())

	d.TotalBytes = 40
	assert.InDelta(t, 0.25, d.Fraction(), 1e-9)
}
