package store

import (
	"context"
	"time"
)

// DefaultExpiry keeps identifiers for five years, the lifetime of a visitor
// identity cookie.
const DefaultExpiry = 5 * 365 * 24 * time.Hour

// Store is durable key to string storage scoped to one origin.
type Store interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
