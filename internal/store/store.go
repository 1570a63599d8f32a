package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store keeps workspace state that does not belong in the record files:
// settings, the project registry and saved views.
type Store struct {
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// migrations[i] moves the schema from user_version i to i+1.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS projects (
		name         TEXT PRIMARY KEY,
		path         TEXT NOT NULL,
		task_count   INTEGER NOT NULL DEFAULT 0,
		last_opened  TEXT,
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS views (
		project     TEXT PRIMARY KEY REFERENCES projects(name) ON DELETE CASCADE,
		state       TEXT NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_projects_last_opened ON projects(last_opened);`,
}

// New opens (or creates) the workspace database at dbPath and brings its
// schema up to date.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection, so an in-memory database is shared by every query.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// version reports the schema version recorded in the database.
func (s *Store) version() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

func (s *Store) migrate() error {
	from, err := s.version()
	if err != nil {
		return err
	}
	for v := from; v < len(migrations); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set user_version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultDBPath returns ~/.config/planr/planr.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "planr", "planr.db"), nil
}
