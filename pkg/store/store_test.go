package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/profiler/pkg/store"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type backend struct {
	name    string
	store   store.Store
	advance func(time.Duration)
}

func backends(t *testing.T) []backend {
	t.Helper()
	ctx := context.Background()

	memClock := newFakeClock()
	mem := store.NewMemoryStore(store.WithClock(memClock.Now))

	sqlClock := newFakeClock()
	sqlStore, err := store.OpenSQLite(ctx, ":memory:", "https://shop.example.com", store.WithSQLiteClock(sqlClock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return []backend{
		{name: "memory", store: mem, advance: memClock.Advance},
		{name: "sqlite", store: sqlStore, advance: sqlClock.Advance},
		{name: "redis", store: store.NewRedisStore(rdb, "https://shop.example.com"), advance: mr.FastForward},
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			s := b.store

			_, err := s.Get(ctx, "profiler_ref")
			assert.ErrorIs(t, err, store.ErrNotFound)

			require.NoError(t, s.Set(ctx, "profiler_ref", "v1", store.DefaultExpiry))
			got, err := s.Get(ctx, "profiler_ref")
			require.NoError(t, err)
			assert.Equal(t, "v1", got)

			require.NoError(t, s.Set(ctx, "profiler_ref", "v2", store.DefaultExpiry))
			got, err = s.Get(ctx, "profiler_ref")
			require.NoError(t, err)
			assert.Equal(t, "v2", got, "set must overwrite")

			require.NoError(t, s.Set(ctx, "profiler_sid", "s1", time.Hour))
			b.advance(2 * time.Hour)
			_, err = s.Get(ctx, "profiler_sid")
			assert.ErrorIs(t, err, store.ErrNotFound, "expired keys are absent")

			got, err = s.Get(ctx, "profiler_ref")
			require.NoError(t, err)
			assert.Equal(t, "v2", got, "multi-year values survive")

			require.NoError(t, s.Set(ctx, "forever", "x", 0))
			b.advance(24 * time.Hour)
			got, err = s.Get(ctx, "forever")
			require.NoError(t, err)
			assert.Equal(t, "x", got)

			assert.ErrorIs(t, s.Set(ctx, "", "x", 0), store.ErrEmptyKey)
			_, err = s.Get(ctx, "")
			assert.ErrorIs(t, err, store.ErrEmptyKey)
		})
	}
}

func TestSQLiteStore_OriginScope(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/profiler.db"

	a, err := store.OpenSQLite(ctx, path, "https://a.example.com")
	require.NoError(t, err)
	defer a.Close()
	b, err := store.OpenSQLite(ctx, path, "https://b.example.com")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set(ctx, "profiler_ref", "va", 0))
	_, err = b.Get(ctx, "profiler_ref")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = store.OpenSQLite(ctx, " ", "x")
	assert.Error(t, err)
}

func TestRedisStore_OriginScopeAndFailure(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	a := store.NewRedisStore(rdb, "a")
	b := store.NewRedisStore(rdb, "b")
	require.NoError(t, a.Set(ctx, "profiler_ref", "va", 0))
	_, err := b.Get(ctx, "profiler_ref")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.True(t, mr.Exists("profiler:a:profiler_ref"))

	mr.Close()
	_, err = a.Get(ctx, "profiler_ref")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.ErrorIs(t, a.Set(ctx, "profiler_ref", "x", 0), store.ErrUnavailable)
}

func TestMemoryStore_Len(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(context.Background(), "a", "1", 0))
	require.NoError(t, s.Set(context.Background(), "b", "2", 0))
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_ExpiredGetKeepsConcurrentSet(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	var (
		s      *store.MemoryStore
		racing bool
	)
	s = store.NewMemoryStore(store.WithClock(func() time.Time {
		// Lands between the expiry check and the delete in Get.
		if racing {
			racing = false
			require.NoError(t, s.Set(ctx, "ref", "fresh", 0))
		}
		return clock.Now()
	}))

	require.NoError(t, s.Set(ctx, "ref", "stale", time.Minute))
	clock.Advance(2 * time.Minute)

	racing = true
	_, err := s.Get(ctx, "ref")
	require.ErrorIs(t, err, store.ErrNotFound)

	v, err := s.Get(ctx, "ref")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}
