package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the evaluator
	Requests int           // Number of evaluations to submit
	Workers  int           // Number of concurrent senders
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every response
}

// Case is one request body and what the evaluator must answer.
type Case struct {
	Name string
	Body string
	// WantZero requires the zero result regardless of the generator.
	WantZero bool
}

// Outcome is the verdict on one submitted case.
type Outcome struct {
	Case       Case
	RequestID  string
	StatusCode int
	Persuasive int
	Empathy    int
	Err        error
}

// Stats holds probe statistics.
type Stats struct {
	Submitted int
	Passed    int
	Failed    int
	Zero      int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
