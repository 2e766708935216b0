// Package session runs the two one-shot features of a tracking client
// lifetime: creating a visitor session and registering the traffic source
// (first-party landing URL plus third-party referrer).
//
// Each feature is a phase.Machine. The machine is claimed before the request
// is sent, so repeated or concurrent triggers never send twice. A request that
// was sent and failed still counts as sent; only a request that could not be
// built rolls the machine back. Missing navigation info abandons the feature.
//
// The controller does not interpret responses. CreateSession and Attribute
// return the body so the caller can hand it to identity.Manager.Ingest and
// react to a newly issued visitor identifier, typically by calling Attribute
// again:
//
//	ctrl := session.New(baseURL, "acme", client, ids,
//	    session.WithNavigation(session.StaticNavigation{ReferrerURL: ref, LocationURL: url}),
//	)
//	ctrl.Start(ctx)
//	if body, err := ctrl.CreateSession(ctx); err == nil {
//	    if u := ids.Ingest(ctx, body); u.Changed {
//	        _, _ = ctrl.Attribute(ctx)
//	    }
//	}
package session
