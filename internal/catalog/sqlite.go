// Package catalog records completed runs and the files they committed,
// giving later runs and the history command a durable record.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"photopull/internal/catalog/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Run is one recorded pull session.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Mode       string
	Committed  int64
	Skipped    int64
	Failed     int64
}

// File is one committed asset within a run.
type File struct {
	RunID       string
	AssetID     string
	Path        string
	SHA256      string
	SizeBytes   int64
	CommittedAt time.Time
}

// SQLiteCatalog stores runs and files in a SQLite database.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// NewSQLiteCatalog opens the catalog at path, migrating the schema to
// the latest version. path can be ":memory:" for an in-memory catalog.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the catalog relies on. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// BeginRun records the start of a run.
func (c *SQLiteCatalog) BeginRun(id string, startedAt time.Time, mode string) error {
	_, err := c.db.Exec(
		`INSERT INTO runs (id, started_at, mode) VALUES (?, ?, ?)`,
		id, startedAt, mode)
	if err != nil {
		return fmt.Errorf("beginning run %s: %w", id, err)
	}
	return nil
}

// FinishRun stamps the run's end time and final counters.
func (c *SQLiteCatalog) FinishRun(id string, finishedAt time.Time, committed, skipped, failed int64) error {
	res, err := c.db.Exec(
		`UPDATE runs SET finished_at = ?, committed = ?, skipped = ?, failed = ? WHERE id = ?`,
		finishedAt, committed, skipped, failed, id)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finishing run %s: run not found", id)
	}
	return nil
}

// RecordFile records one committed file under a run.
func (c *SQLiteCatalog) RecordFile(f File) error {
	_, err := c.db.Exec(
		`INSERT INTO files (run_id, asset_id, path, sha256, size_bytes, committed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.RunID, f.AssetID, f.Path, f.SHA256, f.SizeBytes, f.CommittedAt)
	if err != nil {
		return fmt.Errorf("recording file %s: %w", f.Path, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *SQLiteCatalog) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.Query(
		`SELECT id, started_at, finished_at, mode, committed, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &r.Mode, &r.Committed, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// HasHash reports whether any prior run committed a file with this
// content hash.
func (c *SQLiteCatalog) HasHash(sha256 string) (bool, error) {
	var n int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM files WHERE sha256 = ?`, sha256).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking hash: %w", err)
	}
	return n > 0, nil
}

// Close releases the underlying database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
