// Package journal persists application lifecycle events to a local sqlite
// database for post-run diagnostics. The journal is strictly append-only
// within a run; failures to record never propagate into driving logic.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	logical_name TEXT NOT NULL,
	pid INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
`

// Event is one recorded lifecycle transition.
type Event struct {
	ID          int64     `json:"id" yaml:"id"`
	RunID       string    `json:"run_id" yaml:"run_id"`
	Kind        string    `json:"kind" yaml:"kind"`
	LogicalName string    `json:"logical_name" yaml:"logical_name"`
	PID         int       `json:"pid" yaml:"pid"`
	RecordedAt  time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// Journal appends lifecycle events under a per-process run id.
type Journal struct {
	db    *sql.DB
	runID string
}

// Open opens (creating if needed) the journal database at path and applies
// the schema. Each Open mints a fresh run id so events from separate
// invocations stay distinguishable.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db, runID: uuid.NewString()}, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// RunID identifies this journal session.
func (j *Journal) RunID() string {
	return j.runID
}

// Record appends one event for the current run.
func (j *Journal) Record(kind, logicalName string, pid int) error {
	if j == nil || j.db == nil {
		return errors.New("journal closed")
	}
	_, err := j.db.Exec(
		`INSERT INTO events(run_id, kind, logical_name, pid, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		j.runID, kind, logicalName, pid, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Events returns every event of the current run in insertion order.
func (j *Journal) Events(ctx context.Context) ([]Event, error) {
	return j.eventsWhere(ctx, j.runID)
}

// AllEvents returns every event across runs, oldest first.
func (j *Journal) AllEvents(ctx context.Context) ([]Event, error) {
	return j.eventsWhere(ctx, "")
}

func (j *Journal) eventsWhere(ctx context.Context, runID string) ([]Event, error) {
	query := `SELECT id, run_id, kind, logical_name, pid, recorded_at FROM events`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev Event
			at string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Kind, &ev.LogicalName, &ev.PID, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse event time: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
