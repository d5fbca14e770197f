package prismblog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested document is not stored.
var ErrNotFound = sql.ErrNoRows

// Store is a SQLite-backed copy of fetched content. It lets the server
// keep answering with the last good copy when the content API fails, and
// skips refetching documents that are still fresh after a restart.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers run during writes; writers wait on busy instead of
	// failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    key TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    fetched_at INTEGER NOT NULL
);
`)
	return err
}

// Put stores v as JSON under key.
func (s *Store) Put(key string, v any, fetchedAt time.Time) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("prismblog: encode %s: %w", key, err)
	}
	_, err = s.db.Exec(`
INSERT INTO documents (key, body, fetched_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, string(body), fetchedAt.UnixMilli())
	return err
}

// Get decodes the value stored under key into v and returns when it was
// fetched. It returns ErrNotFound when key is absent.
func (s *Store) Get(key string, v any) (time.Time, error) {
	var body string
	var fetched int64
	err := s.db.QueryRow(`SELECT body, fetched_at FROM documents WHERE key = ?`, key).Scan(&body, &fetched)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return time.Time{}, fmt.Errorf("prismblog: decode %s: %w", key, err)
	}
	return time.UnixMilli(fetched), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE key = ?`, key)
	return err
}

// Purge removes every stored document and returns how many were removed.
func (s *Store) Purge() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM documents`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of stored documents.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}
