package queue

import "context"

// Result is what a worker sends back for a Job.
type Result struct {
	Text string
	Err  error
}

// Job is one generation call waiting for a worker.
type Job struct {
	ID        string
	Prompt    string
	MaxTokens int

	// Ctx carries the caller's deadline to the worker.
	Ctx context.Context //nolint:containedctx // the deadline must travel with the job

	// Reply is buffered so a worker never blocks on a caller that gave up.
	Reply chan Result
}

// NewJob returns a Job whose Reply channel has room for exactly one Result.
func NewJob(ctx context.Context, id, prompt string, maxTokens int) *Job {
	return &Job{
		ID:        id,
		Prompt:    prompt,
		MaxTokens: maxTokens,
		Ctx:       ctx,
		Reply:     make(chan Result, 1),
	}
}

// Expired reports whether the caller's context is already done.
func (j *Job) Expired() bool {
	return j.Ctx.Err() != nil
}

// Respond delivers r without blocking. Only the first call has any effect.
func (j *Job) Respond(r Result) {
	select {
	case j.Reply <- r:
	default:
	}
}
