// Package store persists diagnostics, fixes, fix history, dependency edges,
// and clusters in a SQLite database. It is the system of record every other
// pipeline component reads and writes through.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver registration
)

// DefaultFileName is the database file created under the state directory.
const DefaultFileName = "fixpoint.db"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps the SQLite connection and provides typed CRUD operations.
type Store struct {
	db *sql.DB
}

// Open creates the state directory if needed and opens (or creates) the
// database, initializing the schema on first use.
func Open(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	dbPath := filepath.Join(stateDir, DefaultFileName)
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS diagnostics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file TEXT NOT NULL,
			line INTEGER NOT NULL,
			col INTEGER NOT NULL,
			code TEXT NOT NULL,
			message TEXT NOT NULL,
			category TEXT NOT NULL,
			severity TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'detected',
			hash TEXT NOT NULL,
			first_seen TIMESTAMP NOT NULL,
			last_seen TIMESTAMP NOT NULL,
			occurrences INTEGER NOT NULL DEFAULT 1,
			pattern_id INTEGER NOT NULL DEFAULT 0,
			cluster_id INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_hash ON diagnostics(hash);`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_status ON diagnostics(status);`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_file ON diagnostics(file);`,
		`CREATE TABLE IF NOT EXISTS patterns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL,
			template TEXT NOT NULL,
			UNIQUE(code, template)
		);`,
		`CREATE TABLE IF NOT EXISTS fixes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			success_rate REAL NOT NULL DEFAULT 0,
			pattern_id INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fixes_pattern ON fixes(pattern_id);`,
		`CREATE TABLE IF NOT EXISTS fix_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			diagnostic_id INTEGER NOT NULL,
			fix_id INTEGER NOT NULL DEFAULT 0,
			method TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			success INTEGER NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			before_text TEXT NOT NULL DEFAULT '',
			after_text TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_fix ON fix_history(fix_id);`,
		`CREATE INDEX IF NOT EXISTS idx_history_diagnostic ON fix_history(diagnostic_id);`,
		`CREATE TABLE IF NOT EXISTS dependency_edges (
			cause_id INTEGER NOT NULL,
			effect_id INTEGER NOT NULL,
			confidence REAL NOT NULL,
			PRIMARY KEY (cause_id, effect_id)
		);`,
		`CREATE TABLE IF NOT EXISTS clusters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			representative_id INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS cluster_members (
			cluster_id INTEGER NOT NULL,
			diagnostic_id INTEGER NOT NULL,
			PRIMARY KEY (cluster_id, diagnostic_id)
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
