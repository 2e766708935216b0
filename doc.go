// Package profiler is a visitor identity and personalization client for a
// remote tracking service.
//
// A Client identifies an anonymous visitor across page loads with a
// server-issued reference ("ref") persisted in a store.Store, reports
// behavioral signals (interest data points, custom actions, contact
// updates) and renders server-selected content variants into the current
// page through a dom.Surface.
//
// The client is meant for hosts that own the page: server side renderers,
// edge proxies, headless crawlers and tests. Page capabilities are passed in
// an Environment; whatever is missing simply disables the features that need
// it.
//
// Basic usage:
//
//	doc, _ := dom.ParseString(html)
//	cfg := profiler.DefaultConfig("acme", "https://track.example.com/api")
//
//	client, err := profiler.New(ctx, cfg, profiler.Environment{
//		Navigation:         session.StaticNavigation{ReferrerURL: r.Referer(), LocationURL: pageURL},
//		DOM:                doc,
//		BackgroundDelivery: true,
//	}, profiler.WithStore(store.NewRedisStore(rdb, "shop.example")))
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
//
//	client.PushDataPoint(ctx, profiler.Weighted("sports", 5))
//	out, _ := doc.HTML()
//
// Construction runs the once-per-lifetime features: a session is created if
// none is stored, the traffic source is registered as soon as the visitor is
// known, and the first personalization pass runs when a ref exists or
// arrives. Each of them is a phase.Machine claimed before the request goes
// out, so they never run twice.
//
// Every operation dispatches its request, ingests the response (a new ref
// replaces the stored one) and then runs at most one personalization pass.
// Operations never return network errors: failures are logged and the
// operation becomes a no-op. Only New returns an error, for invalid
// configuration.
//
// Configuration can come from PROFILER_* environment variables:
//
//	cfg, err := profiler.LoadConfig()
package profiler
