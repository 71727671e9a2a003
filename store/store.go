// Package store persists generation runs and attempts to SQLite. The store
// is informational only: the correction loop writes to it but never reads
// its own history back.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one invocation of the agent for a target.
type Run struct {
	ID        int64
	Target    string
	Model     string
	StartedAt time.Time
	Success   bool
	Attempts  int
}

// Attempt is one generate/test cycle inside a run.
type Attempt struct {
	RunID     int64
	Ordinal   int
	Prompt    string
	Source    string
	OK        bool
	ErrorText string
	ElapsedMS int64
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target      TEXT NOT NULL,
	model       TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	success     INTEGER NOT NULL DEFAULT 0,
	attempts    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS attempts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     INTEGER NOT NULL REFERENCES runs(id),
	ordinal    INTEGER NOT NULL,
	prompt     TEXT NOT NULL,
	source     TEXT NOT NULL,
	ok         INTEGER NOT NULL,
	error_text TEXT NOT NULL DEFAULT '',
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);
`

// Store wraps the SQLite database for run persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and initialises the schema.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising schema: %w", err)
	}

	return &Store{db: db}, nil
}

// BeginRun records the start of a generation run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, target, model string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (target, model, started_at) VALUES (?, ?, ?)`,
		target, model, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// RecordAttempt appends one attempt row.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, ordinal, prompt, source, ok, error_text, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Ordinal, a.Prompt, a.Source, a.OK, a.ErrorText, a.ElapsedMS,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting attempt: %w", err)
	}
	return nil
}

// FinishRun marks a run complete with its outcome.
func (s *Store) FinishRun(ctx context.Context, runID int64, success bool, attempts int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, success = ?, attempts = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), success, attempts, runID)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs, newest first, for diagnostics.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, model, started_at, success, attempts
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Target, &r.Model, &started, &r.Success, &r.Attempts); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}
