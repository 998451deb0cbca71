// Package settings implements the durable key/value Settings Store from
// spec.md §4.4: JSON-valued, atomic writes, "null" distinct from "absent".
// Grounded on the teacher's internal/persistence/sqlite package choice of a
// pure-Go embedded SQL engine for durable daemon-local state.
package settings

import (
	"database/sql"
	"encoding/json"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is the durable settings k/v map.
type Store struct {
	// mu serializes writes so "new state visible all-or-nothing" (spec.md
	// §4.4) holds even though sqlite itself already serializes at the
	// connection level; this also protects the read-modify-write in Set
	// from racing with another Set on the same key.
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) a settings database at path. Use ":memory:"
// for ephemeral stores in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: single-writer simplicity
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw JSON value stored under key, and whether it exists
// at all — "null" is a valid stored value distinct from "absent" (spec.md
// §4.4), so callers must check exists rather than testing value for nil.
func (s *Store) Get(key string) (value json.RawMessage, exists bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err = s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(raw), true, nil
}

// Set stores value under key and returns the previous value (nil, false if
// the key didn't exist), atomically: the previous-value read and the write
// happen under the same lock so no other Set can interleave.
func (s *Store) Set(key string, value json.RawMessage) (previous json.RawMessage, hadPrevious bool, err error) {
	if value == nil {
		value = json.RawMessage("null")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback() //nolint:errcheck

	var raw string
	err = tx.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	switch err {
	case nil:
		previous = json.RawMessage(raw)
		hadPrevious = true
	case sql.ErrNoRows:
		// no previous value; leave hadPrevious false
	default:
		return nil, false, err
	}

	if _, err := tx.Exec(`INSERT INTO settings(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(value)); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return previous, hadPrevious, nil
}

// Delete removes key entirely (used internally by callers that want to
// distinguish "reset to default" from "set to null"; not part of the
// public HTTP surface, which only exposes get/set per spec.md §6).
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}
