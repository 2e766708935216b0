package transport

import "errors"

var (
	ErrInvalidEndpoint  = errors.New("transport: invalid endpoint")
	ErrEncodingPayload  = errors.New("transport: failed to encode payload")
	ErrRequestFailed    = errors.New("transport: request failed")
	ErrUnexpectedStatus = errors.New("transport: unexpected response status")
	ErrDecodingResponse = errors.New("transport: failed to decode response")
	ErrTimeout          = errors.New("transport: request timeout")
)

// IsStatusError reports whether err was caused by a non-success response.
func IsStatusError(err error) bool {
	return errors.Is(err, ErrUnexpectedStatus)
}
