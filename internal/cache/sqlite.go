// Package cache persists validated page payloads between runs so a re-run
// after a cancel or crash does not pay for pages that already succeeded.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS page_payloads (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

// Store is a SQLite-backed key/value store for extraction payloads.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM page_payloads WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return payload, true, nil
}

func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_payloads (key, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Len returns the number of cached payloads.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page_payloads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
