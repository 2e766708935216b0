package personalize_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/profiler/pkg/dom"
	"github.com/dmitrymomot/profiler/pkg/identity"
	"github.com/dmitrymomot/profiler/pkg/logger"
	"github.com/dmitrymomot/profiler/pkg/personalize"
	"github.com/dmitrymomot/profiler/pkg/store"
	"github.com/dmitrymomot/profiler/pkg/transport"
)

const page = `<html><body><div id="slot">old</div><ul class="list"><li>a</li></ul></body></html>`

type variantServer struct {
	*httptest.Server
	hits atomic.Int32

	mu       sync.Mutex
	body     string
	status   int
	lastSent map[string]any
}

func newVariantServer(t *testing.T, body string) *variantServer {
	t.Helper()
	vs := &variantServer{body: body, status: http.StatusOK}
	vs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vs.hits.Add(1)
		var sent map[string]any
		_ = json.NewDecoder(r.Body).Decode(&sent)

		vs.mu.Lock()
		vs.lastSent = sent
		status, body := vs.status, vs.body
		vs.mu.Unlock()

		if r.URL.Path != "/acme/personalizations" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(vs.Close)
	return vs
}

func (vs *variantServer) set(status int, body string) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.status, vs.body = status, body
}

func (vs *variantServer) sent() map[string]any {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.lastSent
}

func newEngine(t *testing.T, vs *variantServer, opts ...personalize.Option) (*personalize.Engine, *identity.Manager) {
	t.Helper()
	ids := identity.New(store.NewMemoryStore(), identity.WithLogger(logger.Discard()))
	client := transport.New(transport.WithLogger(logger.Discard()))
	opts = append([]personalize.Option{personalize.WithLogger(logger.Discard())}, opts...)
	return personalize.New(vs.URL, "acme", client, ids, opts...), ids
}

func newDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	return doc
}

func TestVariant_Decode(t *testing.T) {
	t.Parallel()

	var vs []personalize.Variant
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"p1","name":"a","markup":"<b>x</b>"},
		{"id":42,"name":"b","script":"run()","placementMode":"afterend","targetSelector":"#x"},
		{"id":null,"name":"c"}
	]`), &vs))

	require.Len(t, vs, 3)
	assert.Equal(t, personalize.VariantID("p1"), vs[0].ID)
	assert.True(t, vs[0].HasMarkup())
	assert.False(t, vs[0].HasScript())
	assert.Equal(t, "42", vs[1].ID.String())
	assert.Equal(t, "afterend", vs[1].PlacementMode)
	assert.Empty(t, vs[2].ID)

	out, err := json.Marshal(vs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, `42`, string(out))

	out, err = json.Marshal(vs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, `"p1"`, string(out))
}

func TestEngine_Fetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("attaches ref and url", func(t *testing.T) {
		t.Parallel()

		vs := newVariantServer(t, `[{"id":"p1","name":"n"}]`)
		e, ids := newEngine(t, vs, personalize.WithPageURL("https://shop.example/p"))
		ids.SetRef(ctx, "v1")

		got := e.Fetch(ctx)
		require.Len(t, got, 1)
		assert.Equal(t, "n", got[0].Name)
		assert.Equal(t, "v1", vs.sent()["ref"])
		assert.Equal(t, "https://shop.example/p", vs.sent()["url"])
	})

	t.Run("empty on failure", func(t *testing.T) {
		t.Parallel()

		for _, tc := range []struct {
			name   string
			status int
			body   string
		}{
			{"server error", http.StatusInternalServerError, `[]`},
			{"object body", http.StatusOK, `{"id":"p1"}`},
			{"invalid json", http.StatusOK, `[{`},
		} {
			vs := newVariantServer(t, tc.body)
			vs.set(tc.status, tc.body)
			e, _ := newEngine(t, vs)

			got := e.Fetch(ctx)
			assert.NotNil(t, got, tc.name)
			assert.Empty(t, got, tc.name)
		}
	})

	t.Run("empty when unreachable", func(t *testing.T) {
		t.Parallel()

		vs := newVariantServer(t, `[]`)
		e, _ := newEngine(t, vs)
		vs.Close()

		assert.Empty(t, e.Fetch(ctx))
	})
}

func TestEngine_RefreshReplace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vs := newVariantServer(t, `[{"id":"p1","name":"hero","markup":"<b>hi</b>","placementMode":"replace","targetSelector":"#slot"}]`)
	doc := newDoc(t)
	e, _ := newEngine(t, vs, personalize.WithDocument(doc), personalize.WithMarkerClass("marker"))

	res := e.Refresh(ctx)
	assert.NotEmpty(t, res.Generation)
	assert.Equal(t, 1, res.Applied)
	assert.Zero(t, res.Removed)

	inner, err := doc.InnerHTML("#slot")
	require.NoError(t, err)
	assert.Equal(t, `<span class="marker"><b>hi</b></span>`, inner)
}

func TestEngine_RefreshIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty list", `[]`, 0},
		{"append to body", `[{"id":1,"name":"a","markup":"<i>a</i>"}]`, 1},
		{"several positions", `[
			{"id":1,"name":"a","markup":"<i>a</i>","targetSelector":"#slot","placementMode":"beforebegin"},
			{"id":2,"name":"b","markup":"<i>b</i>","targetSelector":"#slot","placementMode":"afterbegin"},
			{"id":3,"name":"c","markup":"<i>c</i>","targetSelector":".list li","placementMode":"afterend"}
		]`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			vs := newVariantServer(t, tt.body)
			doc := newDoc(t)
			e, _ := newEngine(t, vs, personalize.WithDocument(doc))

			first := e.Refresh(ctx)
			second := e.Refresh(ctx)

			assert.NotEqual(t, first.Generation, second.Generation)
			assert.Equal(t, tt.want, second.Removed)
			assert.Equal(t, tt.want, doc.Count("."+personalize.DefaultMarkerClass))
		})
	}
}

func TestEngine_RefreshIdempotentMarkerClasses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, class := range []string{
		"profiler:personalization",
		"1st-party",
		"profiler personalization",
		"a.b#c",
	} {
		t.Run(class, func(t *testing.T) {
			t.Parallel()

			vs := newVariantServer(t, `[{"id":1,"name":"a","markup":"<b>hi</b>","targetSelector":"#slot"}]`)
			doc := newDoc(t)
			e, _ := newEngine(t, vs, personalize.WithDocument(doc), personalize.WithMarkerClass(class))

			var last personalize.Result
			for range 3 {
				last = e.Refresh(ctx)
			}

			assert.Equal(t, 1, last.Removed)
			inner, err := doc.InnerHTML("#slot")
			require.NoError(t, err)
			assert.Equal(t, `old<span class="`+class+`"><b>hi</b></span>`, inner)
		})
	}
}

func TestEngine_RefreshReplacesPreviousGeneration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vs := newVariantServer(t, `[{"id":"a","name":"a","markup":"<i>one</i>","targetSelector":"#slot"}]`)
	doc := newDoc(t)
	e, _ := newEngine(t, vs, personalize.WithDocument(doc), personalize.WithGenerationAttr())

	first := e.Refresh(ctx)
	assert.Equal(t, 1, doc.Count(`[`+personalize.GenerationAttr+`="`+first.Generation+`"]`))

	vs.set(http.StatusOK, `[{"id":"b","name":"b","markup":"<i>two</i>","targetSelector":".list"}]`)
	second := e.Refresh(ctx)

	assert.Zero(t, doc.Count(`[`+personalize.GenerationAttr+`="`+first.Generation+`"]`))
	assert.Equal(t, 1, doc.Count(`.list [`+personalize.GenerationAttr+`="`+second.Generation+`"]`))

	inner, err := doc.InnerHTML("#slot")
	require.NoError(t, err)
	assert.Equal(t, "old", inner)
}

func TestEngine_RefreshFailureClearsMarkup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vs := newVariantServer(t, `[{"id":"a","name":"a","markup":"<i>one</i>"}]`)
	doc := newDoc(t)
	e, _ := newEngine(t, vs, personalize.WithDocument(doc))

	e.Refresh(ctx)
	require.Equal(t, 1, doc.Count("."+personalize.DefaultMarkerClass))

	vs.set(http.StatusServiceUnavailable, ``)
	res := e.Refresh(ctx)
	assert.Empty(t, res.Variants)
	assert.Zero(t, doc.Count("."+personalize.DefaultMarkerClass))
}

func TestEngine_ScriptsAreCumulative(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vs := newVariantServer(t, `[{"id":"s","name":"s","script":"track()"}]`)
	doc := newDoc(t)
	e, _ := newEngine(t, vs, personalize.WithDocument(doc))

	first := e.Refresh(ctx)
	second := e.Refresh(ctx)

	assert.Equal(t, 1, first.Scripts)
	assert.Equal(t, 1, second.Scripts)
	assert.Equal(t, 2, doc.Count("body > script"))
	assert.Equal(t, 1, doc.Count(`script[`+personalize.GenerationAttr+`="`+second.Generation+`"]`))
}

func TestEngine_InvalidSelectorSkipsVariant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vs := newVariantServer(t, `[
		{"id":"bad","name":"bad","markup":"<i>x</i>","targetSelector":"div["},
		{"id":"ok","name":"ok","markup":"<i>y</i>","targetSelector":"#slot"}
	]`)
	doc := newDoc(t)
	e, _ := newEngine(t, vs, personalize.WithDocument(doc))

	res := e.Refresh(ctx)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, doc.Count("#slot ."+personalize.DefaultMarkerClass))
}

func TestEngine_RefreshWithoutDocument(t *testing.T) {
	t.Parallel()

	vs := newVariantServer(t, `[{"id":"a","name":"a","markup":"<i>x</i>"}]`)
	e, _ := newEngine(t, vs)

	res := e.Refresh(context.Background())
	assert.Len(t, res.Variants, 1)
	assert.Zero(t, res.Applied)
	assert.EqualValues(t, 1, vs.hits.Load())
}

func TestEngine_ConcurrentRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vs := newVariantServer(t, `[{"id":"a","name":"a","markup":"<i>x</i>","targetSelector":"#slot"},{"id":"b","name":"b","markup":"<i>y</i>"}]`)
	doc := newDoc(t)
	e, _ := newEngine(t, vs, personalize.WithDocument(doc))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Refresh(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, doc.Count("."+personalize.DefaultMarkerClass))
}
