package queue

import "errors"

// Sentinel errors for enqueue failures.
var (
	ErrQueueFull   = errors.New("generation queue full")
	ErrQueueClosed = errors.New("generation queue closed")
)
