package taskqueue

import "errors"

var (
	// ErrUnknownJob indicates an enqueue for a job name nothing
	// registered a handler for.
	ErrUnknownJob = errors.New("unknown job")

	// ErrInvalidMaxAttempts indicates a retry policy with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrClosed indicates an enqueue against a released pool.
	ErrClosed = errors.New("worker pool is closed")
)
