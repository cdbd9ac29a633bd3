package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSink persists the snapshot in a SQLite database: one row per state
// entry and one per result. Save replaces the whole snapshot inside a
// transaction, matching the wholesale Save/Load contract of the Sink.
type SQLiteSink struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fragment_states (
	id               TEXT PRIMARY KEY,
	state            TEXT NOT NULL,
	last_executed_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS fragment_results (
	id          TEXT PRIMARY KEY,
	output      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	exit_code   INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0
);
`

// NewSQLiteSink opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure state database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure state database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize state schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) Save(doc Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin state save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM fragment_states"); err != nil {
		return fmt.Errorf("clear states: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM fragment_results"); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	for id, ps := range doc.States {
		if _, err := tx.Exec(
			"INSERT INTO fragment_states (id, state, last_executed_at) VALUES (?, ?, ?)",
			id, string(ps.State), ps.LastExecutedAt,
		); err != nil {
			return fmt.Errorf("insert state %q: %w", id, err)
		}
	}
	for id, r := range doc.Results {
		if _, err := tx.Exec(
			"INSERT INTO fragment_results (id, output, error, exit_code, duration_ms) VALUES (?, ?, ?, ?, ?)",
			id, r.Output, r.Error, r.ExitCode, r.DurationMs,
		); err != nil {
			return fmt.Errorf("insert result %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state save: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Load() (Document, bool, error) {
	doc := Document{
		States:  make(map[string]PersistedState),
		Results: make(map[string]ExecutionResult),
	}

	rows, err := s.db.Query("SELECT id, state, last_executed_at FROM fragment_states")
	if err != nil {
		return Document{}, false, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, st, at string
		if err := rows.Scan(&id, &st, &at); err != nil {
			return Document{}, false, fmt.Errorf("scan state row: %w", err)
		}
		doc.States[id] = PersistedState{State: Lifecycle(st), LastExecutedAt: at}
	}
	if err := rows.Err(); err != nil {
		return Document{}, false, fmt.Errorf("iterate states: %w", err)
	}

	rrows, err := s.db.Query("SELECT id, output, error, exit_code, duration_ms FROM fragment_results")
	if err != nil {
		return Document{}, false, fmt.Errorf("query results: %w", err)
	}
	defer rrows.Close()
	for rrows.Next() {
		var id string
		var r ExecutionResult
		if err := rrows.Scan(&id, &r.Output, &r.Error, &r.ExitCode, &r.DurationMs); err != nil {
			return Document{}, false, fmt.Errorf("scan result row: %w", err)
		}
		doc.Results[id] = r
	}
	if err := rrows.Err(); err != nil {
		return Document{}, false, fmt.Errorf("iterate results: %w", err)
	}

	return doc, len(doc.States) > 0 || len(doc.Results) > 0, nil
}
