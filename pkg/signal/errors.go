package signal

import "errors"

var (
	ErrEmptyName    = errors.New("signal: name is required")
	ErrEmptyContact = errors.New("signal: contact has no fields")
	ErrEmptyEmail   = errors.New("signal: email is required")
)
