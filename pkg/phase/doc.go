// Package phase models one-shot features as small finite state machines.
//
// A tracking client has several features that must be dispatched at most once
// per lifetime: creating a session, registering the traffic source and running
// the first personalization pass. Modelling each of them with a boolean makes
// re-entrancy rules implicit. A Machine makes them explicit:
//
//	pending --begin--> in_flight --complete--> done
//	                   in_flight --fail------> done
//	                   in_flight --rollback--> pending
//	pending --abandon--> abandoned
//
// Begin atomically claims the single dispatch. Once a call has been issued the
// machine can only move to done, whether delivery succeeded or not, so the
// feature is dispatched at most once. Rollback exists for the case where the
// call was never issued (for example the payload could not be encoded).
// Abandon records a permanent precondition failure such as a missing runtime
// capability.
//
// # Usage
//
//	m := phase.New(phase.WithObserver(func(from, to phase.State, ev phase.Event) {
//	    log.Debug("phase changed", "from", from, "to", to, "event", ev)
//	}))
//
//	if !m.Begin() {
//	    return // already dispatched
//	}
//	if err := send(ctx); err != nil {
//	    _ = m.Fire(phase.Fail)
//	    return
//	}
//	_ = m.Fire(phase.Complete)
//
// # Error Handling
//
// Fire returns *ErrNoTransition when the event is not defined for the current
// state. Use IsNoTransitionError to branch on it.
//
// # Concurrency
//
// Machine is safe for concurrent use. Observers run while the machine lock is
// held and must not call back into the machine.
package phase
