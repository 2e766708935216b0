package store

import "errors"

var (
	ErrNotFound    = errors.New("store: key not found")
	ErrEmptyKey    = errors.New("store: key is required")
	ErrUnavailable = errors.New("store: backend unavailable")
)
