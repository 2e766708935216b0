// Package signal sends visitor signals to the tracking service: interest
// data points, custom actions, contact profile updates and email
// identification.
//
// Every call carries the current visitor identifier from identity.Manager
// and returns a Completion instead of acting on the response. The caller
// decides what to do with it, usually ingesting Body and running a
// personalization refresh when Refresh is set:
//
//	c := d.PushDataPoint(ctx, signal.Weighted("sports", 5))
//	if c.OK() {
//	    ids.Ingest(ctx, c.Body)
//	}
//
// Failures are logged at warn level and returned in Completion.Err. Invalid
// input (empty names, empty contacts) is rejected without a request.
package signal
