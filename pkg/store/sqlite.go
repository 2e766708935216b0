package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS identity_values (
	origin     TEXT    NOT NULL,
	name       TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (origin, name)
)`

// SQLiteStore keeps values in a SQLite table, one row per (origin, name).
// expires_at is a unix millisecond timestamp, 0 meaning no expiry.
type SQLiteStore struct {
	db     *sql.DB
	origin string
	now    func() time.Time
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock overrides the time source used for expiry.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// OpenSQLite opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path, origin string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create identity schema: %w", err)
	}

	s := &SQLiteStore{db: db, origin: origin, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value for key, or ErrNotFound when it is missing or expired.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM identity_values WHERE origin = ? AND name = ?`,
		s.origin, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if expiresAt > 0 && s.now().UnixMilli() >= expiresAt {
		_, _ = s.db.ExecContext(ctx,
			`DELETE FROM identity_values WHERE origin = ? AND name = ?`, s.origin, key)
		return "", ErrNotFound
	}
	return value, nil
}

// Set upserts value under key. A non-positive ttl never expires.
func (s *SQLiteStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_values (origin, name, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (origin, name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		s.origin, key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
