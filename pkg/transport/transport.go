package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/dmitrymomot/profiler/pkg/logger"
)

// Encoding selects how a payload is put on the wire.
type Encoding int

const (
	// EncodingJSON sends the payload as a JSON request body.
	EncodingJSON Encoding = iota
	// EncodingQuery sends the payload as URL query parameters. The payload must
	// be a struct (or pointer to one) with `url` tags.
	EncodingQuery
)

func (e Encoding) String() string {
	switch e {
	case EncodingQuery:
		return "query"
	default:
		return "json"
	}
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrDecodingResponse)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodingResponse, err)
	}
	return nil
}

// Client issues requests to the tracking service.
// Zero value is not usable; use New.
type Client struct {
	http        *http.Client
	timeout     time.Duration
	headers     map[string]string
	credentials bool
	log         *slog.Logger
}

// New creates a transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    newDefaultHTTPClient(),
		timeout: defaultTimeout,
		headers: map[string]string{"User-Agent": defaultUserAgent},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.credentials {
		c.http = withJar(c.http)
	}
	return c
}

// Request sends payload to endpoint and returns the response of a 2xx reply.
// A nil payload sends no body (JSON) or no query parameters (query).
func (c *Client) Request(ctx context.Context, method, endpoint string, payload any, enc Encoding) (*Response, error) {
	target, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	switch enc {
	case EncodingQuery:
		if payload != nil {
			values, err := query.Values(payload)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
			}
			q := target.Query()
			for k, vs := range values {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			target.RawQuery = q.Encode()
		}
	default:
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
			}
			body = bytes.NewReader(raw)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	c.log.DebugContext(ctx, "tracking request completed",
		logger.Endpoint(target.Path),
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, raw)
	}

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

// Post is Request with http.MethodPost and JSON encoding.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.Request(ctx, http.MethodPost, endpoint, payload, EncodingJSON)
}

// Get is Request with http.MethodGet and query encoding.
func (c *Client) Get(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.Request(ctx, http.MethodGet, endpoint, payload, EncodingQuery)
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidEndpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidEndpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidEndpoint)
	}
	return u, nil
}

func statusError(code int, body []byte) error {
	msg := strings.ReplaceAll(string(body), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
	return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, code, msg)
}
