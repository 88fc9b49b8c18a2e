package service

import "errors"

var (
	// ErrBackpressure is returned when the generation queue cannot take another job.
	ErrBackpressure = errors.New("generation backpressure")
	// ErrNoGenerator is returned by Start when no generator was configured.
	ErrNoGenerator = errors.New("no generator configured")
	// ErrNotStarted is returned for evaluations before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
)
