package profiler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/profiler/pkg/dom"
	"github.com/dmitrymomot/profiler/pkg/pageview"
	"github.com/dmitrymomot/profiler/pkg/session"
	"github.com/dmitrymomot/profiler/pkg/store"
)

// Environment lists the page capabilities available to the client. Nil
// members are absent capabilities; the features depending on them are
// skipped without error.
type Environment struct {
	// Navigation provides the referrer and current page URL.
	Navigation session.Navigation
	// DOM is the document personalization is applied to and metadata is read from.
	DOM dom.Surface
	// Beacon delivers the final page view report.
	Beacon pageview.Beacon
	// BackgroundDelivery uses the client's own HTTP beacon when Beacon is nil.
	BackgroundDelivery bool
	// Unload notifies the client that the page is going away. Without it the
	// client closes the page view on Close.
	Unload pageview.Unload
}

// Option configures a Client.
type Option func(*options)

type options struct {
	log   *slog.Logger
	store store.Store
	http  *http.Client
	now   func() time.Time
}

// WithLogger sets the logger. By default one is built from Config.LogLevel
// and Config.LogFormat.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithStore sets where identifiers persist. Defaults to an in-memory store.
func WithStore(s store.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.http = c
		}
	}
}

// WithClock overrides the time source of page view tracking.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
