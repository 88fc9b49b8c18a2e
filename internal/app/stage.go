package service

import (
	"context"
	"errors"

	"github.com/okian/sway/internal/adapters/mq/queue"
	"github.com/okian/sway/internal/adapters/mq/worker"
	"github.com/okian/sway/internal/domain/payload"
)

// Stage is how far an evaluation got before it responded.
type Stage string

// Evaluation stages, in order.
const (
	StageReceived        Stage = "received"
	StageDecoded         Stage = "decoded"
	StageValidatedInput  Stage = "validated_input"
	StagePrompted        Stage = "prompted"
	StageGenerated       Stage = "generated"
	StageExtracted       Stage = "extracted"
	StageValidatedOutput Stage = "validated_output"
)

// Fallback reasons, used as metric labels.
const (
	ReasonEmptyBody     = "empty_body"
	ReasonBadPayload    = "bad_payload"
	ReasonEmptyInput    = "empty_input"
	ReasonPrompt        = "prompt"
	ReasonBackpressure  = "backpressure"
	ReasonTimeout       = "timeout"
	ReasonGeneration    = "generation"
	ReasonNoCandidate   = "no_candidate"
	ReasonInvalidScores = "invalid_scores"
	ReasonNotStarted    = "not_started"
	ReasonPanic         = "panic"
)

// Outcome labels for evaluations.
const (
	OutcomeScored   = "scored"
	OutcomeFallback = "fallback"
)

func decodeReason(err error) string {
	if errors.Is(err, payload.ErrEmptyBody) {
		return ReasonEmptyBody
	}
	return ReasonBadPayload
}

func generationReason(err error) string {
	switch {
	case errors.Is(err, ErrBackpressure):
		return ReasonBackpressure
	case errors.Is(err, ErrNotStarted), errors.Is(err, queue.ErrQueueClosed), errors.Is(err, worker.ErrStopped):
		return ReasonNotStarted
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, worker.ErrJobExpired):
		return ReasonTimeout
	default:
		return ReasonGeneration
	}
}
