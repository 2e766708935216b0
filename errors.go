package profiler

import "errors"

var (
	ErrInvalidConfig       = errors.New("profiler: invalid configuration")
	ErrMissingOrganization = errors.New("profiler: organization is required")
	ErrInvalidBaseURL      = errors.New("profiler: base URL must be an absolute http(s) URL")
)
