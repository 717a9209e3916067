// Package journal keeps an append-only audit trail of job events in SQLite.
// Every process of the program may write to it; nothing reads it for
// coordination.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  job_id TEXT NOT NULL,
  level TEXT NOT NULL,
  message TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_events_job_id ON job_events(job_id);
`

type Event struct {
	JobID     string
	Level     string
	Message   string
	CreatedAt time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %-5s %s", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Level, e.Message)
}

// Journal is safe to use as a nil pointer; every method is then a no-op.
type Journal struct {
	db *sql.DB
}

// Open opens the journal database and ensures the schema exists. Workers and
// the dashboard may write at the same time, so connections wait on locks
// instead of failing.
func Open(path string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise journal: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) Add(ctx context.Context, jobID, level, msg string) error {
	if j == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := j.db.ExecContext(ctx, `
INSERT INTO job_events (job_id, level, message, created_at) VALUES (?, ?, ?, ?)
`, jobID, level, msg, now)
	return err
}

// List returns the events of a job oldest first. A positive limit keeps only
// the most recent events.
func (j *Journal) List(ctx context.Context, jobID string, limit int) ([]Event, error) {
	if j == nil {
		return nil, nil
	}

	query := `SELECT job_id, level, message, created_at FROM job_events WHERE job_id = ? ORDER BY id DESC`
	args := []any{jobID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			created string
		)
		if err := rows.Scan(&e.JobID, &e.Level, &e.Message, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out, nil
}

// Purge drops every event of the given jobs.
func (j *Journal) Purge(ctx context.Context, jobIDs ...string) error {
	if j == nil || len(jobIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(jobIDs)), ",")
	args := make([]any, len(jobIDs))
	for i, id := range jobIDs {
		args[i] = id
	}

	_, err := j.db.ExecContext(ctx, `DELETE FROM job_events WHERE job_id IN (`+placeholders+`)`, args...)
	return err
}
