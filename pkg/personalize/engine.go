package personalize

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/profiler/pkg/dom"
	"github.com/dmitrymomot/profiler/pkg/identity"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/transport"
)

const (
	// DefaultMarkerClass tags every injected markup wrapper.
	DefaultMarkerClass = "profiler-personalization"
	// GenerationAttr carries the refresh generation on injected nodes.
	GenerationAttr = "data-profiler-generation"
)

// Poster sends a JSON payload and returns the successful response.
type Poster interface {
	Post(ctx context.Context, endpoint string, payload any) (*transport.Response, error)
}

// Result summarizes one refresh pass.
type Result struct {
	Generation string
	Variants   []Variant
	// Applied counts target elements that received markup.
	Applied int
	// Scripts counts script elements appended.
	Scripts int
	// Removed counts marker nodes removed from the previous generation.
	Removed int
}

// Engine fetches variants for the current visitor and applies them to a
// document.
type Engine struct {
	base     string
	org      string
	poster   Poster
	ids      *identity.Manager
	doc      dom.Surface
	url      string
	marker   string
	stampGen bool
	log      *slog.Logger

	// apply serializes remove-then-insert so generations never interleave.
	apply sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithDocument sets the document variants are applied to. Without one,
// Refresh only fetches.
func WithDocument(d dom.Surface) Option {
	return func(e *Engine) {
		e.doc = d
	}
}

// WithPageURL sends the current page URL with every fetch.
func WithPageURL(u string) Option {
	return func(e *Engine) {
		e.url = u
	}
}

// WithMarkerClass overrides the class used to tag injected markup.
func WithMarkerClass(class string) Option {
	return func(e *Engine) {
		if class = strings.TrimSpace(class); class != "" {
			e.marker = class
		}
	}
}

// WithGenerationAttr stamps the generation id on markup wrappers too.
// Scripts always carry it.
func WithGenerationAttr() Option {
	return func(e *Engine) {
		e.stampGen = true
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine fetching variants for organization from base.
func New(base, organization string, poster Poster, ids *identity.Manager, opts ...Option) *Engine {
	e := &Engine{
		base:   base,
		org:    organization,
		poster: poster,
		ids:    ids,
		marker: DefaultMarkerClass,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MarkerClass returns the class injected markup is tagged with.
func (e *Engine) MarkerClass() string { return e.marker }

// Fetch returns the variants selected for the current visitor. Any failure
// is logged and yields an empty slice.
func (e *Engine) Fetch(ctx context.Context) []Variant {
	endpoint, err := transport.Endpoint(e.base, e.org, "personalizations")
	if err != nil {
		e.log.WarnContext(ctx, "personalization fetch skipped", logger.Error(err))
		return []Variant{}
	}

	payload := map[string]any{}
	if e.url != "" {
		payload["url"] = e.url
	}
	resp, err := e.poster.Post(ctx, endpoint, e.ids.Attach(payload))
	if err != nil {
		e.log.WarnContext(ctx, "personalization fetch failed", logger.Endpoint(endpoint), logger.Error(err))
		return []Variant{}
	}

	variants, err := decodeVariants(resp.Body)
	if err != nil {
		e.log.WarnContext(ctx, "personalization fetch failed",
			logger.Endpoint(endpoint),
			logger.Error(fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)),
		)
		return []Variant{}
	}
	return variants
}

// Refresh fetches variants and replaces the previous generation of injected
// markup with them. Scripts are appended on every pass and never removed.
func (e *Engine) Refresh(ctx context.Context) Result {
	variants := e.Fetch(ctx)
	res := Result{Generation: uuid.NewString(), Variants: variants}

	if e.doc == nil {
		e.log.DebugContext(ctx, "no document, variants fetched but not applied",
			logger.Generation(res.Generation),
			logger.Count(len(variants)),
		)
		return res
	}

	e.apply.Lock()
	defer e.apply.Unlock()

	res.Removed = e.doc.RemoveMarked(e.marker)
	for _, v := range variants {
		if v.HasMarkup() {
			res.Applied += e.placeMarkup(ctx, res.Generation, v)
		}
		if v.HasScript() {
			if e.appendScript(ctx, res.Generation, v) {
				res.Scripts++
			}
		}
	}

	e.log.DebugContext(ctx, "personalization applied",
		logger.Generation(res.Generation),
		logger.Count(len(variants)),
		slog.Int("applied", res.Applied),
		slog.Int("scripts", res.Scripts),
		slog.Int("removed", res.Removed),
	)
	return res
}

func (e *Engine) placeMarkup(ctx context.Context, gen string, v Variant) int {
	wrapped := e.wrap(gen, v.Markup)

	var (
		n   int
		err error
	)
	if v.PlacementMode == PlacementReplace {
		n, err = e.doc.SetInner(v.TargetSelector, wrapped)
	} else {
		pos, _ := dom.ParsePosition(v.PlacementMode)
		n, err = e.doc.InsertAdjacent(v.TargetSelector, pos, wrapped)
	}
	if err != nil {
		e.log.WarnContext(ctx, "variant markup not applied",
			logger.VariantID(v.ID.String()),
			slog.String("selector", v.TargetSelector),
			logger.Error(err),
		)
		return 0
	}
	return n
}

func (e *Engine) appendScript(ctx context.Context, gen string, v Variant) bool {
	attrs := map[string]string{GenerationAttr: gen}
	if err := e.doc.AppendScript(v.Script, attrs); err != nil {
		e.log.WarnContext(ctx, "variant script not applied",
			logger.VariantID(v.ID.String()),
			logger.Error(err),
		)
		return false
	}
	return true
}

func (e *Engine) wrap(gen, markup string) string {
	if e.stampGen {
		return fmt.Sprintf(`<span class="%s" %s="%s">%s</span>`,
			html.EscapeString(e.marker), GenerationAttr, gen, markup)
	}
	return fmt.Sprintf(`<span class="%s">%s</span>`, html.EscapeString(e.marker), markup)
}
