// Package pageview tracks the open/close lifecycle of page views.
//
// A Tracker holds at most one open View. Opening a new one closes the
// previous view first. A closed view is reported through a Beacon when
// reporting is enabled, a beacon is configured and the visitor identifier is
// known; the view is forgotten either way. Reports are fire-and-forget and
// carry enter and exit times as Unix milliseconds.
//
// The tracker subscribes to its Unload notifier on the first Open, exactly
// once, so the final view is reported when the page goes away. Hosts without
// a page lifecycle use Hooks and call Fire when they are done:
//
//	hooks := &pageview.Hooks{}
//	t := pageview.New(base, "acme", ids,
//	    pageview.WithBeacon(client.NewBeacon()),
//	    pageview.WithUnload(hooks),
//	)
//	t.Open("https://shop.example/")
//	defer hooks.Fire()
package pageview
