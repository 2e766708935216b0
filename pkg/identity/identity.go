package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/store"
)

// Storage keys used for the persisted identifiers.
const (
	RefKey     = "profiler_ref"
	SessionKey = "profiler_sid"
)

// Update describes what a server response changed.
type Update struct {
	// Ref is the visitor identifier carried by the response, empty when absent.
	Ref string
	// Changed is true when Ref differs from the previously known identifier.
	Changed bool
	// SessionID is the session identifier carried by the response, if any.
	SessionID string
}

// HasRef reports whether the response carried a visitor identifier.
func (u Update) HasRef() bool { return u.Ref != "" }

// wireIdentity is the subset of any mutating response the manager reads.
type wireIdentity struct {
	Ref       *string `json:"ref"`
	SessionID *string `json:"sessionId"`
}

// Manager owns the visitor and session identifiers for one client lifetime.
type Manager struct {
	mu       sync.Mutex
	store    store.Store
	ttl      time.Duration
	log      *slog.Logger
	ref      string
	sid      string
	degraded bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithExpiry overrides how long identifiers are persisted.
func WithExpiry(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// New creates a manager on top of s. A nil store starts the manager degraded.
func New(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:    s,
		ttl:      store.DefaultExpiry,
		log:      slog.Default(),
		degraded: s == nil,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads persisted identifiers. Storage failures switch the manager to
// memory-only mode and are logged, never returned.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.degraded {
		return
	}
	if v, ok := m.readLocked(ctx, RefKey); ok {
		m.ref = v
	}
	if v, ok := m.readLocked(ctx, SessionKey); ok {
		m.sid = v
	}
}

// Ref returns the current visitor identifier, empty when unknown.
func (m *Manager) Ref() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ref
}

// SessionID returns the current session identifier, empty when unknown.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sid
}

// Degraded reports whether persistence was given up for this lifetime.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Ingest applies the identifiers carried by a response body. Bodies that are
// not JSON objects, or that lack the fields, produce an empty Update.
// Responses are applied in the order Ingest is called, so the identifier from
// the most recently completed response wins.
func (m *Manager) Ingest(ctx context.Context, body []byte) Update {
	var w wireIdentity
	if len(body) == 0 || json.Unmarshal(body, &w) != nil {
		return Update{}
	}

	var u Update
	if w.Ref != nil && *w.Ref != "" {
		u.Ref = *w.Ref
		u.Changed = m.SetRef(ctx, u.Ref)
	}
	if w.SessionID != nil && *w.SessionID != "" {
		u.SessionID = *w.SessionID
		m.SetSession(ctx, u.SessionID)
	}
	return u
}

// SetRef replaces the visitor identifier and persists it. Empty values are
// ignored: the client never clears an identity. It reports whether the value
// changed.
func (m *Manager) SetRef(ctx context.Context, ref string) bool {
	if ref == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.ref != ref
	m.ref = ref
	m.writeLocked(ctx, RefKey, ref)
	if changed {
		m.log.DebugContext(ctx, "visitor identity updated", logger.VisitorRef(ref))
	}
	return changed
}

// SetSession replaces the session identifier and persists it.
func (m *Manager) SetSession(ctx context.Context, sid string) {
	if sid == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sid = sid
	m.writeLocked(ctx, SessionKey, sid)
}

// Attach returns a copy of payload carrying the current visitor identifier
// under "ref". Every outbound request goes through it.
func (m *Manager) Attach(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	maps.Copy(out, payload)
	if ref := m.Ref(); ref != "" {
		out["ref"] = ref
	}
	return out
}

func (m *Manager) readLocked(ctx context.Context, key string) (string, bool) {
	v, err := m.store.Get(ctx, key)
	switch {
	case err == nil:
		return v, v != ""
	case errors.Is(err, store.ErrNotFound):
		return "", false
	default:
		m.degradeLocked(ctx, "read", err)
		return "", false
	}
}

func (m *Manager) writeLocked(ctx context.Context, key, value string) {
	if m.degraded {
		return
	}
	if err := m.store.Set(ctx, key, value, m.ttl); err != nil {
		m.degradeLocked(ctx, "write", err)
	}
}

func (m *Manager) degradeLocked(ctx context.Context, op string, err error) {
	m.degraded = true
	m.log.WarnContext(ctx, "identity storage unavailable, keeping identifiers in memory",
		slog.String("op", op),
		logger.Error(err),
	)
}
