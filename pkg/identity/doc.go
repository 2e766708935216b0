// Package identity owns the anonymous visitor identifier ("ref") and the
// session identifier of a tracking client.
//
// Manager loads both values from a store.Store at startup, applies server
// issued values from response bodies (Ingest) and exposes the current ref to
// every outbound request (Attach). A ref, once known, is only ever replaced by
// a newer server value; the client never clears it.
//
// Storage is best-effort. The first read or write failure puts the manager in
// memory-only mode for the rest of its lifetime and logs a warning.
//
// Ingest only reports what changed. Reacting to a fresh identity, such as
// registering the traffic source or running the first personalization pass,
// is left to the caller.
package identity
