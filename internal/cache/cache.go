// Package cache stores emitted IR text keyed by the SHA-256 of the source,
// letting repeated invocations of the same file skip the front-end. Cached
// text re-enters the pipeline through the IR assembly parser.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a content-addressed cache of compiled units.
type Store struct {
	db *sql.DB
}

// Key derives the cache key for a source text.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Open creates or opens a cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	const schema = `
CREATE TABLE IF NOT EXISTS units (
	hash       TEXT PRIMARY KEY,
	unit_id    TEXT NOT NULL,
	ir         TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get returns the cached IR text for a source hash.
func (s *Store) Get(hash string) (string, bool, error) {
	var irText string
	err := s.db.QueryRow(`SELECT ir FROM units WHERE hash = ?`, hash).Scan(&irText)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return irText, true, nil
}

// Put stores the IR text for a source hash.
func (s *Store) Put(hash, unitID, irText string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO units (hash, unit_id, ir, created_at) VALUES (?, ?, ?, ?)`,
		hash, unitID, irText, time.Now().Unix(),
	)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
