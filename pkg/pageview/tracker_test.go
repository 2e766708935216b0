package pageview_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/profiler/pkg/identity"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/pageview"
	"github.com/dmitrymomot/profiler/pkg/session"
	"github.com/dmitrymomot/profiler/pkg/store"
)

type sent struct {
	endpoint string
	payload  any
}

type fakeBeacon struct {
	mu    sync.Mutex
	sent  []sent
	queue bool
}

func (b *fakeBeacon) Send(endpoint string, payload any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sent{endpoint, payload})
	return b.queue
}

func (b *fakeBeacon) all() []sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sent(nil), b.sent...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T, ref string, opts ...pageview.Option) (*pageview.Tracker, *fakeBeacon, *clock) {
	t.Helper()
	ctx := context.Background()

	ids := identity.New(store.NewMemoryStore(), identity.WithLogger(logger.Discard()))
	if ref != "" {
		ids.SetRef(ctx, ref)
		ids.SetSession(ctx, "s1")
	}
	b := &fakeBeacon{queue: true}
	c := &clock{now: time.UnixMilli(1_700_000_000_000)}

	opts = append([]pageview.Option{
		pageview.WithBeacon(b),
		pageview.WithClock(c.Now),
		pageview.WithLogger(logger.Discard()),
		pageview.WithLocator(session.StaticNavigation{LocationURL: "https://shop.example/home"}),
	}, opts...)
	return pageview.New("https://t.example.com", "acme", ids, opts...), b, c
}

func TestTracker_OpenUsesLocation(t *testing.T) {
	t.Parallel()

	tr, _, c := setup(t, "v1")

	v := tr.Open("")
	assert.Equal(t, "https://shop.example/home", v.URL)
	assert.Equal(t, c.Now(), v.Enter)
	assert.False(t, v.Closed())
	assert.NotZero(t, v.ID)

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, v, cur)
}

func TestTracker_OpenClosesPrevious(t *testing.T) {
	t.Parallel()

	tr, b, c := setup(t, "v1")

	first := tr.Open("https://shop.example/a")
	c.Advance(3 * time.Second)
	second := tr.Open("https://shop.example/b")

	assert.NotEqual(t, first.ID, second.ID)

	reports := b.all()
	require.Len(t, reports, 1)
	assert.Equal(t, "https://t.example.com/acme/pageviews", reports[0].endpoint)
	assert.Equal(t, map[string]any{
		"ref":       "v1",
		"sessionId": "s1",
		"url":       "https://shop.example/a",
		"enter":     first.Enter.UnixMilli(),
		"exit":      first.Enter.Add(3 * time.Second).UnixMilli(),
	}, toMap(t, reports[0].payload))

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, "https://shop.example/b", cur.URL)
}

func TestTracker_Close(t *testing.T) {
	t.Parallel()

	tr, b, c := setup(t, "v1")

	_, ok := tr.Close()
	assert.False(t, ok)

	tr.Open("")
	c.Advance(time.Minute)
	v, ok := tr.Close()
	require.True(t, ok)
	assert.True(t, v.Closed())
	assert.Equal(t, time.Minute, v.Exit.Sub(v.Enter))

	_, ok = tr.Current()
	assert.False(t, ok)
	assert.Len(t, b.all(), 1)
}

func TestTracker_NotReported(t *testing.T) {
	t.Parallel()

	t.Run("unknown visitor", func(t *testing.T) {
		t.Parallel()

		tr, b, _ := setup(t, "")
		tr.Open("")
		_, ok := tr.Close()
		assert.True(t, ok)
		assert.Empty(t, b.all())
	})

	t.Run("reporting disabled", func(t *testing.T) {
		t.Parallel()

		tr, b, _ := setup(t, "v1", pageview.WithReporting(false))
		tr.Open("")
		tr.Close()
		assert.Empty(t, b.all())
	})

	t.Run("no beacon", func(t *testing.T) {
		t.Parallel()

		tr, _, _ := setup(t, "v1", pageview.WithBeacon(nil))
		tr.Open("")
		_, ok := tr.Close()
		assert.True(t, ok)
	})

	t.Run("beacon refuses", func(t *testing.T) {
		t.Parallel()

		tr, b, _ := setup(t, "v1")
		b.queue = false
		tr.Open("")
		_, ok := tr.Close()
		assert.True(t, ok)
		_, open := tr.Current()
		assert.False(t, open)
	})
}

func TestTracker_UnloadRegisteredOnce(t *testing.T) {
	t.Parallel()

	hooks := &pageview.Hooks{}
	tr, b, _ := setup(t, "v1", pageview.WithUnload(hooks))

	for range 5 {
		tr.Open("")
	}
	assert.Equal(t, 1, hooks.Len())
	assert.Len(t, b.all(), 4)

	hooks.Fire()
	assert.Len(t, b.all(), 5)
	_, ok := tr.Current()
	assert.False(t, ok)

	hooks.Fire()
	assert.Len(t, b.all(), 5)
}

func TestHooks(t *testing.T) {
	t.Parallel()

	var h pageview.Hooks
	var order []int
	h.OnUnload(func() { order = append(order, 1) })
	h.OnUnload(nil)
	h.OnUnload(func() { order = append(order, 2) })
	assert.Equal(t, 2, h.Len())

	h.Fire()
	assert.Equal(t, []int{1, 2}, order)

	h.OnUnload(func() { order = append(order, 3) })
	h.Fire()
	assert.Equal(t, []int{1, 2}, order)
	assert.Zero(t, h.Len())
}

// toMap round-trips a payload through JSON keeping integers as int64.
func toMap(t *testing.T, payload any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&out))
	for k, v := range out {
		if n, ok := v.(json.Number); ok {
			i, err := n.Int64()
			require.NoError(t, err)
			out[k] = i
		}
	}
	return out
}
