package signal

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/profiler/pkg/identity"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/transport"
)

// Operation names a dispatch kind.
type Operation string

const (
	OpDataPoint Operation = "datapoints"
	OpAction    Operation = "actions"
	OpContact   Operation = "contacts"
	OpIdentify  Operation = "identify"
)

// Requester issues tracking requests.
type Requester interface {
	Post(ctx context.Context, endpoint string, payload any) (*transport.Response, error)
	Get(ctx context.Context, endpoint string, payload any) (*transport.Response, error)
}

// Completion is the outcome of one dispatch. The dispatcher never applies
// side effects itself; the caller ingests Body and refreshes when asked.
type Completion struct {
	Op   Operation
	Body []byte
	Err  error
	// Refresh asks for a personalization pass so server selection can react
	// to the submitted signal.
	Refresh bool
}

// OK reports whether the request succeeded.
func (c Completion) OK() bool { return c.Err == nil }

// Dispatcher sends visitor signals for one organization.
type Dispatcher struct {
	base   string
	org    string
	client Requester
	ids    *identity.Manager
	log    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a dispatcher for organization at base.
func New(base, organization string, client Requester, ids *identity.Manager, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		base:   base,
		org:    organization,
		client: client,
		ids:    ids,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PushDataPoint records one interest.
func (d *Dispatcher) PushDataPoint(ctx context.Context, dp DataPoint) Completion {
	if strings.TrimSpace(dp.Name) == "" {
		return d.reject(ctx, OpDataPoint, ErrEmptyName)
	}
	return d.post(ctx, OpDataPoint, dp.payload())
}

// PushAction records a custom action.
func (d *Dispatcher) PushAction(ctx context.Context, a Action) Completion {
	if strings.TrimSpace(a.Name) == "" {
		return d.reject(ctx, OpAction, ErrEmptyName)
	}
	return d.post(ctx, OpAction, a.payload())
}

// UpdateContact updates the visitor profile.
func (d *Dispatcher) UpdateContact(ctx context.Context, c Contact) Completion {
	if c.empty() {
		return d.reject(ctx, OpContact, ErrEmptyContact)
	}
	return d.post(ctx, OpContact, c.payload())
}

// Identify links the visitor to a known email address. It is the one call
// sent query encoded and does not ask for a refresh.
func (d *Dispatcher) Identify(ctx context.Context, email string) Completion {
	email = strings.TrimSpace(email)
	if email == "" {
		return d.reject(ctx, OpIdentify, ErrEmptyEmail)
	}

	endpoint, err := transport.Endpoint(d.base, d.org, string(OpIdentify))
	if err != nil {
		return d.fail(ctx, OpIdentify, endpoint, err)
	}
	resp, err := d.client.Get(ctx, endpoint, identifyQuery{Email: email, Ref: d.ids.Ref()})
	if err != nil {
		return d.fail(ctx, OpIdentify, endpoint, err)
	}
	return Completion{Op: OpIdentify, Body: resp.Body}
}

func (d *Dispatcher) post(ctx context.Context, op Operation, payload map[string]any) Completion {
	endpoint, err := transport.Endpoint(d.base, d.org, string(op))
	if err != nil {
		return d.fail(ctx, op, endpoint, err)
	}
	resp, err := d.client.Post(ctx, endpoint, d.ids.Attach(payload))
	if err != nil {
		return d.fail(ctx, op, endpoint, err)
	}
	return Completion{Op: op, Body: resp.Body, Refresh: true}
}

func (d *Dispatcher) reject(ctx context.Context, op Operation, err error) Completion {
	d.log.DebugContext(ctx, "signal rejected", slog.String("op", string(op)), logger.Error(err))
	return Completion{Op: op, Err: err}
}

func (d *Dispatcher) fail(ctx context.Context, op Operation, endpoint string, err error) Completion {
	d.log.WarnContext(ctx, "signal dispatch failed",
		slog.String("op", string(op)),
		logger.Endpoint(endpoint),
		logger.Error(err),
	)
	return Completion{Op: op, Err: err}
}
