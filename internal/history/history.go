// Package history keeps a ledger of upload runs in sqlite
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Ning0612/jutil/internal/domain"
)

// Run statuses
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Run is one `jutil upload` invocation
type Run struct {
	ID          string
	Destination string
	Paths       []string
	StartTime   time.Time
	EndTime     time.Time
	Status      string
	DryRun      bool
	Stats       domain.Stats
	Error       string
}

// NewRun starts a run record with a fresh id
func NewRun(destination string, paths []string) Run {
	return Run{
		ID:          uuid.NewString(),
		Destination: destination,
		Paths:       append([]string(nil), paths...),
		StartTime:   time.Now(),
	}
}

// Finish sets the end time, stats and a status derived from err
func (r *Run) Finish(stats domain.Stats, err error) {
	r.EndTime = time.Now()
	r.Stats = stats
	switch {
	case err == nil:
		r.Status = StatusSuccess
	case errors.Is(err, context.Canceled):
		r.Status = StatusCancelled
		r.Error = err.Error()
	default:
		r.Status = StatusFailed
		r.Error = err.Error()
	}
}

// Duration is how long the run took
func (r Run) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Ledger stores runs
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection avoids "database is locked" between writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		destination TEXT NOT NULL,
		paths TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		files_uploaded INTEGER DEFAULT 0,
		bytes_uploaded INTEGER DEFAULT 0,
		folders_created INTEGER DEFAULT 0,
		folders_reused INTEGER DEFAULT 0,
		skipped_cycles INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_destination_time ON runs(destination, start_time DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record saves a finished run
func (l *Ledger) Record(ctx context.Context, run Run) error {
	switch run.Status {
	case StatusSuccess, StatusFailed, StatusCancelled:
	default:
		return fmt.Errorf("invalid status: %q", run.Status)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	paths, err := json.Marshal(run.Paths)
	if err != nil {
		return fmt.Errorf("failed to encode paths: %w", err)
	}

	query := `
		INSERT INTO runs (id, destination, paths, start_time, end_time, status, dry_run,
			files_uploaded, bytes_uploaded, folders_created, folders_reused, skipped_cycles, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = l.db.ExecContext(ctx, query,
		run.ID,
		run.Destination,
		string(paths),
		run.StartTime,
		run.EndTime,
		run.Status,
		run.DryRun,
		run.Stats.FilesUploaded,
		run.Stats.BytesUploaded,
		run.Stats.FoldersCreated,
		run.Stats.FoldersReused,
		run.Stats.SkippedCycles,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, destination, paths, start_time, end_time, status, dry_run,
		files_uploaded, bytes_uploaded, folders_created, folders_reused, skipped_cycles, error
	FROM runs
`

// Recent returns up to limit runs, newest first. An empty destination
// returns runs for every destination.
func (l *Ledger) Recent(ctx context.Context, destination string, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var rows *sql.Rows
	var err error
	if destination == "" {
		rows, err = l.db.QueryContext(ctx, selectRuns+" ORDER BY start_time DESC LIMIT ?", limit)
	} else {
		rows, err = l.db.QueryContext(ctx, selectRuns+" WHERE destination = ? ORDER BY start_time DESC LIMIT ?", destination, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Totals sums the stats of all successful, non dry-run uploads into
// destination (every destination when empty)
func (l *Ledger) Totals(ctx context.Context, destination string) (domain.Stats, int, error) {
	query := selectRuns + " WHERE status = ? AND dry_run = 0"
	args := []any{StatusSuccess}
	if destination != "" {
		query += " AND destination = ?"
		args = append(args, destination)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.Stats{}, 0, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	var total domain.Stats
	count := 0
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return domain.Stats{}, 0, err
		}
		total.Add(run.Stats)
		count++
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, 0, fmt.Errorf("error iterating runs: %w", err)
	}
	return total, count, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var paths string
	var errText sql.NullString
	err := rows.Scan(
		&run.ID,
		&run.Destination,
		&paths,
		&run.StartTime,
		&run.EndTime,
		&run.Status,
		&run.DryRun,
		&run.Stats.FilesUploaded,
		&run.Stats.BytesUploaded,
		&run.Stats.FoldersCreated,
		&run.Stats.FoldersReused,
		&run.Stats.SkippedCycles,
		&errText,
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(paths), &run.Paths); err != nil {
		return Run{}, fmt.Errorf("invalid paths for run %s: %w", run.ID, err)
	}
	run.Error = errText.String
	return run, nil
}

// Close closes the database
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
