package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/profiler/pkg/identity"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/phase"
	"github.com/dmitrymomot/profiler/pkg/transport"
)

// Poster sends a JSON payload and returns the successful response.
type Poster interface {
	Post(ctx context.Context, endpoint string, payload any) (*transport.Response, error)
}

// Controller creates at most one session and registers the traffic source at
// most once per lifetime.
type Controller struct {
	base     string
	org      string
	poster   Poster
	ids      *identity.Manager
	nav      Navigation
	tracking bool
	log      *slog.Logger

	session     *phase.Machine
	attribution *phase.Machine
}

// Option configures a Controller.
type Option func(*Controller)

// WithNavigation sets the navigation capability. Without it both features
// are abandoned on Start.
func WithNavigation(nav Navigation) Option {
	return func(c *Controller) {
		c.nav = nav
	}
}

// WithSessionTracking enables or disables session creation. Enabled by default.
func WithSessionTracking(enabled bool) Option {
	return func(c *Controller) {
		c.tracking = enabled
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a controller sending requests for organization to base.
func New(base, organization string, poster Poster, ids *identity.Manager, opts ...Option) *Controller {
	c := &Controller{
		base:     base,
		org:      organization,
		poster:   poster,
		ids:      ids,
		tracking: true,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.session = phase.New(phase.WithObserver(c.observe("session")))
	c.attribution = phase.New(phase.WithObserver(c.observe("attribution")))
	return c
}

// Start settles what can be decided before any request: a disabled or
// already satisfied session is done, and missing navigation abandons both
// features for the rest of the lifetime. Call it after identity.Manager.Load.
func (c *Controller) Start(ctx context.Context) {
	if !c.tracking || c.ids.SessionID() != "" {
		c.finish(c.session)
	}
	if _, _, ok := resolve(c.nav); !ok {
		c.log.DebugContext(ctx, "navigation info unavailable, session and attribution disabled")
		_ = c.session.Fire(phase.Abandon)
		_ = c.attribution.Fire(phase.Abandon)
	}
}

// CreateSession issues the new-session request if no session is known yet.
// It returns the response body for identity ingestion. ErrSkipped means
// nothing was sent.
func (c *Controller) CreateSession(ctx context.Context) ([]byte, error) {
	if !c.session.Begin() {
		return nil, ErrSkipped
	}
	if !c.tracking || c.ids.SessionID() != "" {
		_ = c.session.Fire(phase.Complete)
		return nil, ErrSkipped
	}

	referrer, location, ok := resolve(c.nav)
	if !ok {
		c.abandon(c.session)
		return nil, fmt.Errorf("%w: %w", ErrSkipped, ErrNoNavigation)
	}

	endpoint, err := transport.Endpoint(c.base, c.org, "sessions")
	if err != nil {
		_ = c.session.Fire(phase.Rollback)
		return nil, err
	}

	payload := c.ids.Attach(map[string]any{
		"referrer": referrer,
		"url":      location,
	})
	resp, err := c.poster.Post(ctx, endpoint, payload)
	c.session.Settle(err)
	if err != nil {
		c.log.WarnContext(ctx, "session request failed", logger.Endpoint(endpoint), logger.Error(err))
		return nil, err
	}
	return resp.Body, nil
}

// Attribute registers first- and third-party URLs for the current visitor.
// It requires a known visitor identifier; until one exists the call is
// skipped and may be retried later.
func (c *Controller) Attribute(ctx context.Context) ([]byte, error) {
	if c.ids.Ref() == "" {
		return nil, ErrSkipped
	}
	if !c.attribution.Begin() {
		return nil, ErrSkipped
	}

	referrer, location, ok := resolve(c.nav)
	if !ok {
		c.abandon(c.attribution)
		return nil, fmt.Errorf("%w: %w", ErrSkipped, ErrNoNavigation)
	}

	endpoint, err := transport.Endpoint(c.base, c.org, "sources")
	if err != nil {
		_ = c.attribution.Fire(phase.Rollback)
		return nil, err
	}

	payload := c.ids.Attach(map[string]any{
		"firstParty": location,
		"thirdParty": referrer,
	})
	resp, err := c.poster.Post(ctx, endpoint, payload)
	c.attribution.Settle(err)
	if err != nil {
		c.log.WarnContext(ctx, "source attribution failed", logger.Endpoint(endpoint), logger.Error(err))
		return nil, err
	}
	return resp.Body, nil
}

// SessionState returns the session feature state.
func (c *Controller) SessionState() phase.State { return c.session.Current() }

// AttributionState returns the attribution feature state.
func (c *Controller) AttributionState() phase.State { return c.attribution.Current() }

// IsSkipped reports whether err means no request was issued.
func IsSkipped(err error) bool { return errors.Is(err, ErrSkipped) }

func (c *Controller) finish(m *phase.Machine) {
	if m.Begin() {
		_ = m.Fire(phase.Complete)
	}
}

func (c *Controller) abandon(m *phase.Machine) {
	_ = m.Fire(phase.Rollback)
	_ = m.Fire(phase.Abandon)
}

func (c *Controller) observe(feature string) phase.Observer {
	return func(from, to phase.State, event phase.Event) {
		c.log.Debug("feature transition",
			logger.Component(feature),
			slog.String("from", from.String()),
			logger.Phase(to.String()),
			slog.String("event", event.String()),
		)
	}
}
