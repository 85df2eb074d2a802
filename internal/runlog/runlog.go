// Package runlog records harvest and load runs in the run_log table.
package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/bluehands/internal/db"
)

// Run kinds.
const (
	KindHarvest = "harvest"
	KindLoad    = "load"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Entry represents a row in run_log.
type Entry struct {
	ID          uuid.UUID      `json:"id"`
	Kind        string         `json:"kind"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	RowsWritten int64          `json:"rows_written"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running.
func (e Entry) Duration() time.Duration {
	if e.CompletedAt == nil {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// Result holds the outcome of a run, passed to Complete.
type Result struct {
	RowsWritten int64          `json:"rows_written"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Log provides read/write access to the run_log table.
type Log struct {
	pool db.Pool
}

// New creates a Log backed by the given connection pool.
func New(pool db.Pool) *Log {
	return &Log{pool: pool}
}

// Start records the beginning of a run and returns its ID.
func (l *Log) Start(ctx context.Context, kind string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO run_log (id, kind, status, started_at)
		 VALUES ($1, $2, 'running', now())`,
		id, kind,
	)
	if err != nil {
		return uuid.Nil, eris.Wrapf(err, "runlog: start %s run", kind)
	}
	return id, nil
}

// Complete marks a run as successfully completed.
func (l *Log) Complete(ctx context.Context, id uuid.UUID, result *Result) error {
	var metaJSON []byte
	if result != nil && result.Metadata != nil {
		var err error
		metaJSON, err = json.Marshal(result.Metadata)
		if err != nil {
			return eris.Wrap(err, "runlog: marshal metadata")
		}
	}

	rows := int64(0)
	if result != nil {
		rows = result.RowsWritten
	}

	_, err := l.pool.Exec(ctx,
		`UPDATE run_log
		 SET status = 'complete', completed_at = now(), rows_written = $1, metadata = $2
		 WHERE id = $3`,
		rows, metaJSON, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", id)
	}
	return nil
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE run_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", id)
	}
	return nil
}

// LastSuccess returns the start time of the most recent completed run of a
// kind, or nil if there has never been one.
func (l *Log) LastSuccess(ctx context.Context, kind string) (*time.Time, error) {
	var t time.Time
	err := l.pool.QueryRow(ctx,
		`SELECT started_at FROM run_log
		 WHERE kind = $1 AND status = 'complete'
		 ORDER BY started_at DESC LIMIT 1`,
		kind,
	).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: last success for %s", kind)
	}
	return &t, nil
}

// ListAll returns every run entry, most recent first.
func (l *Log) ListAll(ctx context.Context) ([]Entry, error) {
	return l.List(ctx, "", 0)
}

// List returns run entries, most recent first. An empty kind lists every
// kind; limit <= 0 means no limit.
func (l *Log) List(ctx context.Context, kind string, limit int) ([]Entry, error) {
	sql := `SELECT id::text, kind, status, started_at, completed_at, rows_written, error, metadata
		 FROM run_log WHERE ($1 = '' OR kind = $1) ORDER BY started_at DESC`
	args := []any{kind}
	if limit > 0 {
		sql += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e           Entry
			id          string
			completedAt *time.Time
			errStr      *string
			metaJSON    []byte
		)
		if err := rows.Scan(&id, &e.Kind, &e.Status, &e.StartedAt, &completedAt, &e.RowsWritten, &errStr, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "runlog: parse run id %q", id)
		}
		e.CompletedAt = completedAt
		if errStr != nil {
			e.Error = *errStr
		}
		if metaJSON != nil {
			_ = json.Unmarshal(metaJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
