package enginelog

import "errors"

// Sentinel errors for logging operations.
var (
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidOutput    = errors.New("invalid log output")
)
