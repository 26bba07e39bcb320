package status

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists statuses to SQLite.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a status database.
// The path should be a file path (e.g., "./status.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS drop_status (
			run_id TEXT NOT NULL,
			uid TEXT NOT NULL,
			status TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (run_id, uid)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_drop_status_run_seq
		ON drop_status(run_id, sequence)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(runID, uid string, st Status) error {
	if !st.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO drop_status (run_id, uid, status, sequence, timestamp)
		VALUES (
			?, ?, ?,
			COALESCE((SELECT MAX(sequence) FROM drop_status WHERE run_id = ?), 0) + 1,
			?
		)
		ON CONFLICT(run_id, uid) DO UPDATE SET
			status = excluded.status,
			sequence = (SELECT MAX(sequence) FROM drop_status WHERE run_id = excluded.run_id) + 1,
			timestamp = excluded.timestamp
	`, runID, uid, string(st), runID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(runID, uid string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var name string
	err := s.db.QueryRow(`
		SELECT status FROM drop_status
		WHERE run_id = ? AND uid = ?
	`, runID, uid).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	return ParseStatus(name)
}

// List implements Store.
func (s *SQLiteStore) List(runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT uid, status, sequence, timestamp
		FROM drop_status
		WHERE run_id = ?
		ORDER BY sequence
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var name, timestamp string
		if err := rows.Scan(&rec.UID, &name, &rec.Sequence, &timestamp); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		if rec.Status, err = ParseStatus(name); err != nil {
			return nil, err
		}
		rec.RunID = runID
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statuses: %w", err)
	}
	return records, nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM drop_status WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run statuses: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
