// Package journal persists a write-only history of reconciliation runs in
// SQLite. The sync engine never reads it back — actual and desired state are
// rebuilt from scratch every run — it exists for the "status" subcommand and
// for debugging partial failures after the fact.
//
// Only this package may open or query the database. All other packages
// receive a [*Journal] and call its methods.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/njoerd114/cratesync/internal/sync"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at         TEXT    NOT NULL,
    finished_at        TEXT    NOT NULL,
    added              INTEGER NOT NULL DEFAULT 0,
    deleted            INTEGER NOT NULL DEFAULT 0,
    ghosts             INTEGER NOT NULL DEFAULT 0,
    validation_skipped INTEGER NOT NULL DEFAULT 0,
    failed             INTEGER NOT NULL DEFAULT 0,
    aborted            INTEGER NOT NULL DEFAULT 0,
    error              TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS anomalies (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    kind       TEXT    NOT NULL,
    release_id INTEGER NOT NULL,
    detail     TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_anomalies_run ON anomalies (run_id);
`

// Run is one recorded reconciliation pass.
type Run struct {
	ID                int64
	StartedAt         time.Time
	FinishedAt        time.Time
	Added             int
	Deleted           int
	Ghosts            int
	ValidationSkipped int
	Failed            int
	Aborted           bool
	Error             string
}

// Anomaly is one recorded per-item condition belonging to a run.
type Anomaly struct {
	ID        int64
	RunID     int64
	Kind      string
	ReleaseID int
	Detail    string
}

// Journal is the SQLite-backed run history.
type Journal struct {
	db *sql.DB
}

// DefaultPath returns the default journal path:
// ~/.local/share/cratesync/journal.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "cratesync", "journal.db"), nil
}

// Open opens (or creates) the journal database at path, applies the schema,
// and configures WAL mode.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// Single writer to avoid SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one run and its anomalies. Implements [sync.ReportSink].
func (j *Journal) Record(ctx context.Context, started, finished time.Time, rep sync.Report, runErr error) error {
	aborted := 0
	errText := ""
	if runErr != nil {
		aborted = 1
		errText = runErr.Error()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting journal transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		    (started_at, finished_at, added, deleted, ghosts, validation_skipped, failed, aborted, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(started),
		formatTime(finished),
		rep.Added,
		rep.Deleted,
		rep.Ghosts,
		rep.ValidationSkipped,
		rep.Failed,
		aborted,
		errText,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	for _, a := range rep.Anomalies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO anomalies (run_id, kind, release_id, detail)
			VALUES (?, ?, ?, ?)`,
			runID, a.Kind.String(), a.ReleaseID, a.Detail,
		); err != nil {
			return fmt.Errorf("inserting anomaly for release %d: %w", a.ReleaseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing journal transaction: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	const q = `
		SELECT id, started_at, finished_at, added, deleted, ghosts,
		       validation_skipped, failed, aborted, error
		FROM runs ORDER BY id DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var aborted int
		if err := rows.Scan(
			&r.ID, &started, &finished, &r.Added, &r.Deleted, &r.Ghosts,
			&r.ValidationSkipped, &r.Failed, &aborted, &r.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.StartedAt, _ = parseTime(started)
		r.FinishedAt, _ = parseTime(finished)
		r.Aborted = aborted != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// AnomaliesForRun returns all anomalies recorded for the given run id.
func (j *Journal) AnomaliesForRun(ctx context.Context, runID int64) ([]Anomaly, error) {
	const q = `
		SELECT id, run_id, kind, release_id, detail
		FROM anomalies WHERE run_id = ? ORDER BY id`
	rows, err := j.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("querying anomalies for run %d: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var anomalies []Anomaly
	for rows.Next() {
		var a Anomaly
		if err := rows.Scan(&a.ID, &a.RunID, &a.Kind, &a.ReleaseID, &a.Detail); err != nil {
			return nil, fmt.Errorf("scanning anomaly row: %w", err)
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
