// Package personalize fetches server-selected content variants for the
// current visitor and applies them to a dom.Surface.
//
// Refresh is idempotent with respect to markup: every injected fragment is
// wrapped in a span carrying the marker class, and each pass first removes
// all marked nodes before inserting the new set, so at most one generation of
// markup is ever present. The fetch runs outside the apply lock; concurrent
// refreshes each apply a complete generation and the last one to apply wins.
//
// Scripts behave differently. Each pass appends one script element per
// variant that has a script body, stamped with the pass generation in
// data-profiler-generation, and never removes earlier ones.
//
// Placement follows insertAdjacentHTML naming. "replace" sets the target
// contents; "beforebegin", "afterbegin", "beforeend" and "afterend" insert
// relative to each target; anything else appends as the last child. An empty
// target selector means the document body.
package personalize
