// Package state persists push-adapter snapshots (last-known report
// values plus accumulator state) across process restarts.  Snapshots
// carry a one-day time-to-live so stale readings are not resurrected
// indefinitely.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// TTL after which a persisted snapshot is treated as absent.
const snapshotTTL = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS adapter_state (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store is a SQLite-backed snapshot store keyed by adapter name.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if necessary) the snapshot database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Save msgpack-encodes snapshot and upserts it under name.
func (s *Store) Save(name string, snapshot interface{}) error {
	payload, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", name, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO adapter_state (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		name, payload, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", name, err)
	}
	return nil
}

// Load decodes the snapshot stored under name into out.  It returns
// false when no snapshot exists or the stored one has aged past the
// one-day TTL.
func (s *Store) Load(name string, out interface{}) (bool, error) {
	var payload []byte
	var updatedAt int64

	err := s.db.QueryRow(
		`SELECT payload, updated_at FROM adapter_state WHERE name = ?`, name,
	).Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot for %s: %w", name, err)
	}

	if s.now().Sub(time.Unix(updatedAt, 0)) > snapshotTTL {
		return false, nil
	}

	if err := msgpack.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("failed to decode snapshot for %s: %w", name, err)
	}
	return true, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
