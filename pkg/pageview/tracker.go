package pageview

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/profiler/pkg/identity"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/transport"
)

// Beacon sends a payload in background without waiting for a reply.
type Beacon interface {
	Send(endpoint string, payload any) bool
}

// Locator returns the current page URL.
type Locator interface {
	Location() (string, bool)
}

// View is one open interval on a page.
type View struct {
	ID    ulid.ULID
	URL   string
	Enter time.Time
	Exit  time.Time
}

// Closed reports whether the view has an exit time.
func (v View) Closed() bool { return !v.Exit.IsZero() }

type report struct {
	Ref       string `json:"ref"`
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url"`
	Enter     int64  `json:"enter"`
	Exit      int64  `json:"exit"`
}

// Tracker keeps at most one open View and reports it when closed.
type Tracker struct {
	base      string
	org       string
	ids       *identity.Manager
	beacon    Beacon
	unload    Unload
	location  Locator
	reporting bool
	now       func() time.Time
	log       *slog.Logger

	mu      sync.Mutex
	current *View
	once    sync.Once
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithBeacon sets the background sender. Without one nothing is reported.
func WithBeacon(b Beacon) Option {
	return func(t *Tracker) {
		t.beacon = b
	}
}

// WithUnload sets the unload notifier the tracker subscribes to on first Open.
func WithUnload(u Unload) Option {
	return func(t *Tracker) {
		t.unload = u
	}
}

// WithLocator sets where the current page URL comes from.
func WithLocator(l Locator) Option {
	return func(t *Tracker) {
		t.location = l
	}
}

// WithReporting enables or disables sending closed views. Enabled by default.
func WithReporting(enabled bool) Option {
	return func(t *Tracker) {
		t.reporting = enabled
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// New creates a tracker reporting views for organization to base.
func New(base, organization string, ids *identity.Manager, opts ...Option) *Tracker {
	t := &Tracker{
		base:      base,
		org:       organization,
		ids:       ids,
		reporting: true,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open starts a new view, closing the open one first. An empty urlOverride
// uses the current page URL.
func (t *Tracker) Open(urlOverride string) View {
	if t.unload != nil {
		t.once.Do(func() {
			t.unload.OnUnload(func() { t.Close() })
		})
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.closeLocked()

	u := urlOverride
	if u == "" && t.location != nil {
		u, _ = t.location.Location()
	}
	now := t.now()
	v := &View{
		ID:    ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		URL:   u,
		Enter: now,
	}
	t.current = v
	return *v
}

// Close ends the open view, reports it if possible and forgets it. It
// returns the closed view, or false when none was open.
func (t *Tracker) Close() (View, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked()
}

// Current returns the open view.
func (t *Tracker) Current() (View, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return View{}, false
	}
	return *t.current, true
}

func (t *Tracker) closeLocked() (View, bool) {
	if t.current == nil {
		return View{}, false
	}
	v := *t.current
	v.Exit = t.now()
	t.current = nil

	t.report(v)
	return v, true
}

func (t *Tracker) report(v View) {
	if !t.reporting || t.beacon == nil {
		return
	}
	ref := t.ids.Ref()
	if ref == "" {
		t.log.Debug("page view not reported, visitor unknown", slog.String("view_id", v.ID.String()))
		return
	}

	endpoint, err := transport.Endpoint(t.base, t.org, "pageviews")
	if err != nil {
		t.log.Warn("page view not reported", logger.Error(err))
		return
	}
	ok := t.beacon.Send(endpoint, report{
		Ref:       ref,
		SessionID: t.ids.SessionID(),
		URL:       v.URL,
		Enter:     v.Enter.UnixMilli(),
		Exit:      v.Exit.UnixMilli(),
	})
	if !ok {
		t.log.Warn("page view beacon not queued", logger.Endpoint(endpoint), slog.String("view_id", v.ID.String()))
	}
}
