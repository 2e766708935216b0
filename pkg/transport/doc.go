// Package transport issues HTTP calls to the tracking service.
//
// Client.Request sends a payload either as a JSON body (EncodingJSON) or as URL
// query parameters (EncodingQuery, encoded with github.com/google/go-querystring)
// and returns the body of a 2xx reply. Every other outcome is an error:
// ErrRequestFailed for network failures, ErrTimeout when the per request
// timeout fires, ErrUnexpectedStatus for non-success codes. There is no retry;
// callers treat a failed call as dropped.
//
// Beacon is the fire-and-forget path used at page unload: Send returns at once
// and the POST runs on a detached context with a short timeout.
//
// # Usage
//
//	tc := transport.New(
//	    transport.WithTimeout(5*time.Second),
//	    transport.WithOrigin("https://shop.example.com"),
//	    transport.WithCredentials(true),
//	)
//
//	endpoint, _ := transport.Endpoint(baseURL, "acme", "datapoints")
//	resp, err := tc.Post(ctx, endpoint, map[string]any{"name": "sports", "weight": 5})
//	if err != nil {
//	    log.Warn("push failed", logger.Error(err))
//	    return
//	}
//
//	beacon := tc.NewBeacon()
//	beacon.Send(pageViewEndpoint, report)
package transport
