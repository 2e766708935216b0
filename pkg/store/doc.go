// Package store persists visitor and session identifiers.
//
// Store is a minimal key to string interface with optional expiry, scoped to a
// single origin the way browser storage is. Three backends are provided:
//
//   - MemoryStore: process memory, used as fallback and in tests.
//   - RedisStore: github.com/redis/go-redis/v9 with native key expiry, for
//     hosts that track many visitors (edge proxies, render farms).
//   - SQLiteStore: modernc.org/sqlite, a single file per host with lazy expiry.
//
// Absent and expired keys both return ErrNotFound. Backend failures wrap
// ErrUnavailable; callers are expected to degrade rather than fail.
//
// # Usage
//
//	s, err := store.OpenSQLite(ctx, "profiler.db", "https://shop.example.com")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	_ = s.Set(ctx, "profiler_ref", ref, store.DefaultExpiry)
package store
