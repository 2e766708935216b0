package profiler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/profiler/pkg/async"
	"github.com/dmitrymomot/profiler/pkg/identity"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/metadata"
	"github.com/dmitrymomot/profiler/pkg/pageview"
	"github.com/dmitrymomot/profiler/pkg/personalize"
	"github.com/dmitrymomot/profiler/pkg/phase"
	"github.com/dmitrymomot/profiler/pkg/session"
	"github.com/dmitrymomot/profiler/pkg/signal"
	"github.com/dmitrymomot/profiler/pkg/store"
	"github.com/dmitrymomot/profiler/pkg/transport"
)

// Client tracks one visitor on one page lifetime.
type Client struct {
	cfg Config
	env Environment
	log *slog.Logger

	http     *transport.Client
	beacon   *transport.Beacon
	ids      *identity.Manager
	sessions *session.Controller
	engine   *personalize.Engine
	dispatch *signal.Dispatcher
	views    *pageview.Tracker
	hooks    *pageview.Hooks

	firstPass *phase.Machine
	metadata  *phase.Machine

	// bg outlives the constructor context and ends on Close.
	bg        context.Context
	cancel    context.CancelFunc
	pending   *async.Future[struct{}]
	closeOnce sync.Once
}

// New validates cfg, loads the stored identity and runs the construction
// time features: session creation, source attribution, contact
// identification, the first page view, the page metadata push and, when the
// visitor is already known, the first personalization pass.
//
// Only an invalid configuration is returned as an error. Network and storage
// failures are logged.
func New(ctx context.Context, cfg Config, env Environment, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.New(
			logger.WithLevelName(cfg.LogLevel),
			logger.WithFormatName(cfg.LogFormat),
			logger.WithVisitorContext(),
		)
	}
	if o.store == nil {
		o.store = store.NewMemoryStore()
	}

	log := o.log.With(logger.Component("profiler"), logger.Organization(cfg.Organization))

	c := &Client{
		cfg: cfg,
		env: env,
		log: log,
	}
	c.bg, c.cancel = context.WithCancel(context.WithoutCancel(ctx))

	topts := []transport.Option{
		transport.WithTimeout(cfg.RequestTimeout),
		transport.WithCredentials(true),
		transport.WithLogger(log.With(logger.Component("transport"))),
	}
	if o.http != nil {
		topts = append(topts, transport.WithHTTPClient(o.http))
	}
	if cfg.Origin != "" {
		topts = append(topts, transport.WithOrigin(cfg.Origin))
	}
	c.http = transport.New(topts...)

	c.ids = identity.New(o.store, identity.WithLogger(log.With(logger.Component("identity"))))
	c.ids.Load(ctx)
	if cfg.OverrideRef != "" {
		c.ids.SetRef(ctx, cfg.OverrideRef)
	}

	c.sessions = session.New(cfg.BaseURL, cfg.Organization, c.http, c.ids,
		session.WithNavigation(env.Navigation),
		session.WithSessionTracking(cfg.TrackSessions),
		session.WithLogger(log.With(logger.Component("session"))),
	)

	popts := []personalize.Option{
		personalize.WithDocument(env.DOM),
		personalize.WithMarkerClass(cfg.MarkerClass),
		personalize.WithLogger(log.With(logger.Component("personalize"))),
	}
	if env.Navigation != nil {
		if u, ok := env.Navigation.Location(); ok {
			popts = append(popts, personalize.WithPageURL(u))
		}
	}
	c.engine = personalize.New(cfg.BaseURL, cfg.Organization, c.http, c.ids, popts...)

	c.dispatch = signal.New(cfg.BaseURL, cfg.Organization, c.http, c.ids,
		signal.WithLogger(log.With(logger.Component("signal"))),
	)

	c.firstPass = phase.New()
	if !cfg.Personalization {
		_ = c.firstPass.Fire(phase.Abandon)
	}
	c.metadata = phase.New()
	if env.DOM == nil {
		_ = c.metadata.Fire(phase.Abandon)
	}

	if cfg.TrackPageViews {
		c.views = c.newTracker(o)
	}

	c.start(ctx)
	return c, nil
}

func (c *Client) newTracker(o *options) *pageview.Tracker {
	var beacon pageview.Beacon
	switch {
	case c.env.Beacon != nil:
		beacon = c.env.Beacon
	case c.env.BackgroundDelivery:
		c.beacon = c.http.NewBeacon()
		beacon = c.beacon
	}

	unload := c.env.Unload
	if unload == nil {
		c.hooks = &pageview.Hooks{}
		unload = c.hooks
	}

	topts := []pageview.Option{
		pageview.WithUnload(unload),
		pageview.WithLogger(c.log.With(logger.Component("pageview"))),
	}
	if beacon != nil {
		topts = append(topts, pageview.WithBeacon(beacon))
	}
	if c.env.Navigation != nil {
		topts = append(topts, pageview.WithLocator(c.env.Navigation))
	}
	if o.now != nil {
		topts = append(topts, pageview.WithClock(o.now))
	}
	return pageview.New(c.cfg.BaseURL, c.cfg.Organization, c.ids, topts...)
}

func (c *Client) start(ctx context.Context) {
	c.sessions.Start(ctx)

	if body, err := c.sessions.CreateSession(ctx); err == nil {
		c.settle(ctx, body, false)
	}
	c.attribute(ctx)

	if c.cfg.ContactEmail != "" {
		if comp := c.dispatch.Identify(ctx, c.cfg.ContactEmail); comp.OK() {
			c.settle(ctx, comp.Body, false)
		}
	}

	if c.views != nil {
		c.views.Open("")
	}

	if !c.metadata.IsTerminal() {
		if c.cfg.DataPointDelay > 0 {
			c.pending = async.After(c.bg, c.cfg.DataPointDelay, func(ctx context.Context) {
				c.CollectMetadata(ctx)
			})
		} else {
			c.CollectMetadata(ctx)
		}
	}

	if c.ids.Ref() != "" {
		c.firstPersonalization(ctx)
	}
}

// settle applies the effects of one completed request: the response is
// ingested first, a newly issued visitor identifier triggers attribution and
// the first personalization pass, and refresh asks for one more pass. At most
// one pass runs per completion.
func (c *Client) settle(ctx context.Context, body []byte, refresh bool) {
	u := c.ids.Ingest(ctx, body)
	refreshed := false
	if u.HasRef() {
		refreshed = c.onRef(ctx)
	}
	if refresh && !refreshed {
		c.refresh(ctx)
	}
}

// onRef runs the one-shot reactions to a known visitor identifier. It reports
// whether a personalization pass ran.
func (c *Client) onRef(ctx context.Context) bool {
	c.attribute(ctx)
	return c.firstPersonalization(ctx)
}

func (c *Client) attribute(ctx context.Context) {
	if body, err := c.sessions.Attribute(ctx); err == nil {
		c.settle(ctx, body, false)
	}
}

func (c *Client) firstPersonalization(ctx context.Context) bool {
	if !c.firstPass.Begin() {
		return false
	}
	c.engine.Refresh(c.visitorContext(ctx))
	_ = c.firstPass.Fire(phase.Complete)
	return true
}

// refresh runs a personalization pass when personalization is enabled. Any
// completed pass also satisfies the first pass.
func (c *Client) refresh(ctx context.Context) (personalize.Result, bool) {
	if !c.cfg.Personalization {
		return personalize.Result{}, false
	}
	res := c.engine.Refresh(c.visitorContext(ctx))
	if c.firstPass.Begin() {
		_ = c.firstPass.Fire(phase.Complete)
	}
	return res, true
}

// PushDataPoint records one interest and refreshes personalization.
func (c *Client) PushDataPoint(ctx context.Context, dp DataPoint) {
	comp := c.dispatch.PushDataPoint(c.visitorContext(ctx), dp)
	if comp.OK() {
		c.settle(ctx, comp.Body, comp.Refresh)
	}
}

// PushDataPoints sends one request per data point concurrently, waits for
// all of them and then refreshes personalization once.
func (c *Client) PushDataPoints(ctx context.Context, dps ...DataPoint) {
	if len(dps) == 0 {
		return
	}
	vctx := c.visitorContext(ctx)

	futures := make([]*async.Future[pushOutcome], 0, len(dps))
	for _, dp := range dps {
		futures = append(futures, async.Async(vctx, dp, func(ctx context.Context, dp DataPoint) (pushOutcome, error) {
			comp := c.dispatch.PushDataPoint(ctx, dp)
			if !comp.OK() {
				return pushOutcome{}, comp.Err
			}
			return pushOutcome{update: c.ids.Ingest(ctx, comp.Body), sent: true}, nil
		}))
	}

	outcomes, err := async.Settle(futures...)
	sent, hasRef := 0, false
	for _, o := range outcomes {
		if o.sent {
			sent++
		}
		if o.update.HasRef() {
			hasRef = true
		}
	}
	if err != nil {
		c.log.DebugContext(vctx, "data point batch partially failed",
			logger.Count(len(dps)),
			slog.Int("sent", sent),
			logger.Error(err),
		)
	}

	refreshed := false
	if hasRef {
		refreshed = c.onRef(ctx)
	}
	if sent > 0 && !refreshed {
		c.refresh(ctx)
	}
}

type pushOutcome struct {
	update identity.Update
	sent   bool
}

// PushAction records a custom action and refreshes personalization.
func (c *Client) PushAction(ctx context.Context, a Action) {
	comp := c.dispatch.PushAction(c.visitorContext(ctx), a)
	if comp.OK() {
		c.settle(ctx, comp.Body, comp.Refresh)
	}
}

// UpdateContact updates the visitor profile and refreshes personalization.
func (c *Client) UpdateContact(ctx context.Context, ct Contact) {
	comp := c.dispatch.UpdateContact(c.visitorContext(ctx), ct)
	if comp.OK() {
		c.settle(ctx, comp.Body, comp.Refresh)
	}
}

// CollectMetadata pushes the interests declared by the page meta tag as one
// batch. It runs once per client; later calls report false.
func (c *Client) CollectMetadata(ctx context.Context) bool {
	if !c.metadata.Begin() {
		return false
	}
	dps := metadata.Read(c.env.DOM, c.cfg.MetadataTag)
	_ = c.metadata.Fire(phase.Complete)

	c.log.DebugContext(ctx, "page metadata collected", logger.Count(len(dps)))
	c.PushDataPoints(ctx, dps...)
	return true
}

// Personalize fetches and applies variants now. It reports false when
// personalization is disabled.
func (c *Client) Personalize(ctx context.Context) (PersonalizationResult, bool) {
	return c.refresh(ctx)
}

// OpenPageView starts a new page view, closing the open one. An empty url
// uses the current page URL. It does nothing when page view tracking is off.
func (c *Client) OpenPageView(url string) {
	if c.views == nil {
		return
	}
	c.views.Open(url)
}

// Ref returns the visitor identifier, empty when unknown.
func (c *Client) Ref() string { return c.ids.Ref() }

// SessionID returns the session identifier, empty when unknown.
func (c *Client) SessionID() string { return c.ids.SessionID() }

// Close ends the page lifetime: a pending metadata push is canceled, the
// open page view is closed and reported, and queued beacons are awaited
// until ctx is done. Later calls do nothing.
func (c *Client) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.pending != nil {
			select {
			case <-c.pending.Done():
			case <-ctx.Done():
			}
		}
		if c.views != nil {
			if c.hooks != nil {
				c.hooks.Fire()
			} else {
				c.views.Close()
			}
		}
		if c.beacon != nil {
			err = c.beacon.Wait(ctx)
		}
	})
	return err
}

func (c *Client) visitorContext(ctx context.Context) context.Context {
	return logger.ContextWithVisitor(ctx, c.ids.Ref(), c.ids.SessionID())
}
