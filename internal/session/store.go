package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// CommandRun is one executed command as stored durably.
type CommandRun struct {
	Ts       time.Time
	Kind     string
	Target   string
	Success  bool
	Category string
	Message  string
}

// Stats aggregates the stored command history.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	ByKind    map[string]int
}

// Store records every executed command in a SQLite database so usage
// can be inspected across sessions.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare store dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open command store: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS command_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TIMESTAMP NOT NULL,
	kind TEXT NOT NULL,
	target TEXT NOT NULL,
	success INTEGER NOT NULL,
	category TEXT NOT NULL,
	message TEXT NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init command store schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Record inserts one command run.
func (s *Store) Record(run CommandRun) error {
	if run.Ts.IsZero() {
		run.Ts = time.Now()
	}
	_, err := s.db.ExecContext(context.Background(), `
INSERT INTO command_runs (ts, kind, target, success, category, message)
VALUES (?, ?, ?, ?, ?, ?)`,
		run.Ts, run.Kind, run.Target, boolToInt(run.Success), run.Category, run.Message)
	return err
}

// Stats aggregates all recorded runs.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{ByKind: make(map[string]int)}
	if err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(success),0) FROM command_runs`).
		Scan(&stats.Total, &stats.Succeeded); err != nil {
		return stats, err
	}
	stats.Failed = stats.Total - stats.Succeeded

	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM command_runs GROUP BY kind`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return stats, err
		}
		stats.ByKind[kind] = count
	}
	return stats, rows.Err()
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(limit int) ([]CommandRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
SELECT ts, kind, target, success, category, message
FROM command_runs
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []CommandRun
	for rows.Next() {
		var run CommandRun
		var success int
		if err := rows.Scan(&run.Ts, &run.Kind, &run.Target, &success, &run.Category, &run.Message); err != nil {
			return nil, err
		}
		run.Success = success == 1
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
