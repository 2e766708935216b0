package session

import "errors"

var (
	// ErrSkipped is returned when no request was issued: the feature already
	// ran, is disabled, or its preconditions are not met yet.
	ErrSkipped = errors.New("session: skipped")
	// ErrNoNavigation means the runtime exposes no referrer or location.
	ErrNoNavigation = errors.New("session: navigation info unavailable")
)
