package transport

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultBeaconTimeout = 5 * time.Second
	defaultUserAgent     = "profiler-go/1.0"
	maxResponseBytes     = 1 << 20
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Nil is ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds every request. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(cl *Client) {
		if key != "" && value != "" {
			cl.headers[key] = value
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return WithHeader("User-Agent", ua)
}

// WithOrigin sets the Origin header, the server uses it for CORS decisions.
func WithOrigin(origin string) Option {
	return WithHeader("Origin", origin)
}

// WithCredentials mirrors the browser "include credentials" mode: cookies set
// by the tracking server are kept and replayed on later requests.
func WithCredentials(enabled bool) Option {
	return func(cl *Client) {
		cl.credentials = enabled
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

func newDefaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// withJar returns a shallow copy of c that keeps cookies.
func withJar(c *http.Client) *http.Client {
	if c.Jar != nil {
		return c
	}
	jar, _ := cookiejar.New(nil)
	cp := *c
	cp.Jar = jar
	return &cp
}
