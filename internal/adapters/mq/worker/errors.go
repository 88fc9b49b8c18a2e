package worker

import "errors"

// Sentinel errors sent back to callers instead of a generation.
var (
	// ErrStopped is returned for jobs still queued when the pool shuts down.
	ErrStopped = errors.New("worker stopped")
	// ErrJobExpired is returned for jobs whose context ended while they waited.
	ErrJobExpired = errors.New("job expired in queue")
	// ErrGeneratorPanic is returned when the generator panics.
	ErrGeneratorPanic = errors.New("generator panicked")
)
