package probe

import "errors"

// Probe errors.
var (
	ErrUnhealthy    = errors.New("evaluator is not healthy")
	ErrBadStatus    = errors.New("unexpected status code")
	ErrBadBody      = errors.New("response is not a score pair")
	ErrOutOfRange   = errors.New("score out of range")
	ErrNotZero      = errors.New("expected the zero result")
	ErrChecksFailed = errors.New("probe checks failed")
)
