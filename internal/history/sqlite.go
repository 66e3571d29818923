package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		target TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		revision TEXT,
		archive TEXT,
		log TEXT,
		config_dir TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts e.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, target, started, duration_ms, outcome, exit_code, revision, archive, log, config_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BuildID, e.Target, e.Started.UnixMilli(), e.Duration.Milliseconds(), e.Outcome, e.ExitCode,
		e.Revision, e.Archive, e.Log, e.ConfigDir,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// List returns recorded builds, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, target, started, duration_ms, outcome, exit_code, revision, archive, log, config_dir
		FROM builds ORDER BY started DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                      Entry
			started, durationMS    int64
			revision, archive, log sql.NullString
			configDir              sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Target, &started, &durationMS, &e.Outcome, &e.ExitCode,
			&revision, &archive, &log, &configDir); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.Started = time.UnixMilli(started)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Revision, e.Archive, e.Log, e.ConfigDir = revision.String, archive.String, log.String, configDir.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
