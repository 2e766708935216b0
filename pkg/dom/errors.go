package dom

import "errors"

var (
	ErrInvalidSelector = errors.New("dom: invalid selector")
	ErrNoBody          = errors.New("dom: document has no body")
	ErrParse           = errors.New("dom: failed to parse document")
)
