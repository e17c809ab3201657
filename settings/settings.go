// Package settings is the key/value settings collaborator: provider
// choice, API keys, threshold overrides. Reads and writes are assumed to
// be able to hang (slow disk, contended database), so every call is
// wrapped in a timeout here rather than trusting each caller to do it.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// DefaultTimeout bounds one Get or Set call.
const DefaultTimeout = 2 * time.Second

// Store is a SQLite-backed settings store.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// Option customises Open.
type Option func(*Store)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Open creates or opens the settings database, applying the usual
// production pragmas.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("settings: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("settings: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: apply schema: %w", err)
	}

	s := &Store{db: db, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OpenMemory opens an in-memory store for tests.
func OpenMemory(opts ...Option) (*Store, error) {
	return Open(":memory:", opts...)
}

// Get returns the values for the requested keys. Missing keys are simply
// absent from the result, not errors.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		var value string
		err := s.db.QueryRowContext(ctx,
			`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		switch {
		case err == sql.ErrNoRows:
			continue
		case err != nil:
			return nil, fmt.Errorf("settings: get %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// GetOne returns a single value, with ok reporting presence.
func (s *Store) GetOne(ctx context.Context, key string) (value string, ok bool, err error) {
	values, err := s.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	value, ok = values[key]
	return value, ok, nil
}

// Set upserts all given key/value pairs in one transaction.
func (s *Store) Set(ctx context.Context, values map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for key, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now); err != nil {
			return fmt.Errorf("settings: set %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
