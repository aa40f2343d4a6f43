package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	errs "datedreader/pkg/errors"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrStoreClosed indicates the store has been closed
var ErrStoreClosed = errors.New("checkpoint store closed")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	template    TEXT PRIMARY KEY,
	file_date   TEXT NOT NULL,
	byte_offset INTEGER NOT NULL,
	updated_at  TEXT NOT NULL
)`

// SQLiteStore keeps the checkpoint table in a SQLite database, one row per
// template. It is meant for a single process.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex
	closed bool

	// broken is set when an existing file could not be given the schema;
	// Load and Save report it instead of touching the database.
	broken error
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for tests. An existing file that is not a usable database
// opens fine and fails on Load with a corrupt-store error.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	preexisting := false
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		preexisting = true
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only allows one writer at a time; :memory: also needs a
	// single connection to keep its data.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, path: path}
	if _, err := db.Exec(sqliteSchema); err != nil {
		if !preexisting {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
		store.broken = errs.CorruptStore(path, err)
	}
	return store, nil
}

// Load implements Store
func (s *SQLiteStore) Load() (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if s.broken != nil {
		return nil, s.broken
	}

	// A checkpoints table with some other shape fails here
	rows, err := s.db.Query(`SELECT template, file_date, byte_offset FROM checkpoints`)
	if err != nil {
		return nil, errs.CorruptStore(s.path, err)
	}
	defer rows.Close()

	table := NewTable()
	for rows.Next() {
		var (
			tmpl   string
			date   string
			offset int64
		)
		if err := rows.Scan(&tmpl, &date, &offset); err != nil {
			return nil, errs.CorruptStore(s.path, err)
		}
		d, err := ParseDate(date)
		if err != nil {
			return nil, errs.CorruptStore(s.path, err)
		}
		table.Set(tmpl, Entry{Date: d, Offset: offset})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.CorruptStore(s.path, err)
	}

	if err := table.validate(); err != nil {
		return nil, errs.CorruptStore(s.path, err)
	}
	return table, nil
}

// Save implements Store. All rows are replaced in one transaction.
func (s *SQLiteStore) Save(t Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.broken != nil {
		return s.broken
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM checkpoints`); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear checkpoints: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO checkpoints (template, file_date, byte_offset, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, tmpl := range t.Templates() {
		e := t[tmpl]
		if _, err := stmt.Exec(tmpl, e.Date.String(), e.Offset, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert checkpoint for %s: %w", tmpl, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the database. Calling it twice is safe.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
