package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/profiler/pkg/logger"
)

// Beacon delivers payloads in background without waiting for a reply, the
// server side equivalent of navigator.sendBeacon. Delivery is not confirmed.
type Beacon struct {
	http    *http.Client
	timeout time.Duration
	headers map[string]string
	log     *slog.Logger
	wg      sync.WaitGroup
}

// NewBeacon creates a beacon sender sharing the client's HTTP settings.
func (c *Client) NewBeacon() *Beacon {
	headers := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		headers[k] = v
	}
	timeout := defaultBeaconTimeout
	if c.timeout < timeout {
		timeout = c.timeout
	}
	return &Beacon{http: c.http, timeout: timeout, headers: headers, log: c.log}
}

// Send queues payload for delivery to endpoint and returns immediately. It
// reports false when the beacon could not be queued (invalid endpoint or an
// unencodable payload).
func (b *Beacon) Send(endpoint string, payload any) bool {
	if _, err := parseEndpoint(endpoint); err != nil {
		b.log.Warn("beacon not queued", logger.Endpoint(endpoint), logger.Error(err))
		return false
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Warn("beacon not queued", logger.Endpoint(endpoint), logger.Error(err))
		return false
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.deliver(endpoint, raw)
	}()
	return true
}

// Wait blocks until queued beacons finished or ctx is done. Hosts call it
// before process exit so the final report is not cut short.
func (b *Beacon) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Beacon) deliver(endpoint string, raw []byte) {
	// Detached from any caller context: the page that queued it may be gone.
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		b.log.Warn("beacon delivery failed", logger.Endpoint(endpoint), logger.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		b.log.Warn("beacon delivery failed", logger.Endpoint(endpoint), logger.Error(err))
		return
	}
	_ = resp.Body.Close()
}
