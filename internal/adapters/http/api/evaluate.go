package api

import (
	"io"
	"net/http"

	"github.com/okian/sway/internal/domain/model"
	"github.com/okian/sway/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20

// Option configures the evaluation handler.
type Option func(*EvaluateHandler)

// WithMaxBodyBytes caps how much of a request body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(h *EvaluateHandler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// EvaluateHandler handles POST / requests.
type EvaluateHandler struct {
	evaluator    Evaluator
	maxBodyBytes int64
	logger       logger.Logger
}

// NewEvaluateHandler creates a new evaluation handler.
func NewEvaluateHandler(e Evaluator, opts ...Option) *EvaluateHandler {
	h := &EvaluateHandler{
		evaluator:    e,
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEvaluate always answers 200 with a score pair. Unreadable or
// oversized bodies are judged as empty and so yield the zero result.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.logger.Warn(r.Context(), "request body unreadable", logger.Error(err))
		writeJSON(w, http.StatusOK, model.ZeroResult())
		return
	}
	writeJSON(w, http.StatusOK, h.evaluator.Evaluate(r.Context(), raw))
}
