// Package model contains domain models passed between layers.
package model

// Score bounds, inclusive.
const (
	MinScore = 0
	MaxScore = 5
)

// Request is one message to judge against a theme.
// Both fields are trimmed and must be non-empty before judging.
type Request struct {
	Theme string
	Input string
}

// Result is the only value ever returned to callers.
// Both fields are always within [MinScore, MaxScore].
type Result struct {
	Persuasive int `json:"persuasive"`
	Empathy    int `json:"empathy"`
}

// ZeroResult is the canonical fallback returned on any failure.
func ZeroResult() Result {
	return Result{}
}

// IsZero reports whether r is the fallback pair.
func (r Result) IsZero() bool {
	return r == Result{}
}

// InRange reports whether both scores lie within the closed score range.
func (r Result) InRange() bool {
	return inRange(r.Persuasive) && inRange(r.Empathy)
}

func inRange(v int) bool {
	return v >= MinScore && v <= MaxScore
}
