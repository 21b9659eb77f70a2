package app

import "errors"

// Publisher errors. They can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start is called on a running service.
	ErrAlreadyRunning = errors.New("rtpsgroup: already running")

	// ErrNotRunning is returned when Stop is called on a stopped service.
	ErrNotRunning = errors.New("rtpsgroup: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("rtpsgroup: shutdown timeout")

	// ErrInvalidConfig is returned when the publisher configuration is unusable.
	ErrInvalidConfig = errors.New("rtpsgroup: invalid configuration")
)
