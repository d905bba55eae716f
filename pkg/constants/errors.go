package constants

import "errors"

// Errors
var (
	ErrTimeout        = errors.New("timeout")
	ErrConnectionLost = errors.New("connection lost and could not be restored")
	ErrClosed         = errors.New("client is closed")
	ErrNoAddress      = errors.New("address not set")
)
