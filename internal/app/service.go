// Package service runs evaluations: decode, prompt, generate, extract, validate.
//
// Evaluate never fails. Every error, including panics, collapses into the
// zero result and is reported only through logs and metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sway/internal/adapters/llm"
	"github.com/okian/sway/internal/adapters/mq/queue"
	"github.com/okian/sway/internal/adapters/mq/worker"
	"github.com/okian/sway/internal/domain/extract"
	"github.com/okian/sway/internal/domain/model"
	"github.com/okian/sway/internal/domain/payload"
	"github.com/okian/sway/internal/domain/prompt"
	"github.com/okian/sway/internal/domain/validate"
	"github.com/okian/sway/pkg/logger"
	"github.com/okian/sway/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	defaultWorkerCount = 1
	defaultQueueSize   = 64
	defaultMaxTokens   = 32
)

// Metric families read back for GetStats.
const (
	evaluationsFamily = "sway_evaluator_evaluations_total"
	fallbacksFamily   = "sway_evaluator_fallbacks_total"
)

// Service implements the evaluation dependency of the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	generator llm.Generator
	builder   *prompt.Builder
	extractor *extract.Extractor
	jobs      queue.Queue
	pool      *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	maxTokens   int
	timeout     time.Duration
	snapshot    string

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGenerator sets the generation collaborator. Required.
func WithGenerator(g llm.Generator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithPromptBuilder replaces the default prompt builder.
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithWorkerCount sets how many generations may run at once.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many evaluations may wait for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxTokens caps the tokens generated per evaluation.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTimeout bounds one generation, queue wait included. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithSnapshot records the resolved model snapshot for health reporting.
func WithSnapshot(commit string) Option {
	return func(s *Service) {
		s.snapshot = commit
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		maxTokens:   defaultMaxTokens,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the prompt and extraction stages and starts the generation workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("evaluator")
	}
	if s.generator == nil {
		return ErrNoGenerator
	}

	if s.builder == nil {
		b, err := prompt.New()
		if err != nil {
			return fmt.Errorf("build prompt: %w", err)
		}
		s.builder = b
	}
	ex, err := extract.New()
	if err != nil {
		return fmt.Errorf("build extractor: %w", err)
	}
	s.extractor = ex

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.generator)
	// Workers outlive the start context; Stop ends them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.String("provider", s.generator.Name()),
		logger.String("model", s.generator.Model()),
		logger.String("instruction", prompt.InstructionVersion),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxTokens", s.maxTokens),
		logger.Duration("timeout", s.timeout),
	)

	return nil
}

// Stop gracefully shuts down the workers. Waiting evaluations fall back to zero.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping evaluation service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "evaluation service stopped")
}

// evaluation tracks one request through the stages.
type evaluation struct {
	id     string
	stage  Stage
	reason string
	raw    string
	result model.Result
}

// Evaluate judges raw, a request body holding theme and input.
// It always returns a Result within the score range.
func (s *Service) Evaluate(ctx context.Context, raw []byte) (result model.Result) {
	ev := &evaluation{id: logger.RequestIDFrom(ctx), stage: StageReceived}
	if ev.id == "" {
		ev.id = uuid.NewString()
		ctx = logger.ContextWithRequestID(ctx, ev.id)
	}

	defer func() {
		if r := recover(); r != nil {
			ev.reason = ReasonPanic
			ev.result = model.ZeroResult()
			s.log().Error(ctx, "evaluation panicked",
				logger.String("stage", string(ev.stage)),
				logger.Any("panic", r),
			)
		}
		s.finish(ctx, ev)
		result = ev.result
	}()

	s.run(ctx, ev, raw)
	return ev.result
}

func (s *Service) run(ctx context.Context, ev *evaluation, raw []byte) {
	ev.result = model.ZeroResult()

	req, err := payload.Decode(raw)
	if err != nil {
		ev.reason = decodeReason(err)
		return
	}
	ev.stage = StageDecoded

	if req.Theme == "" || req.Input == "" {
		ev.reason = ReasonEmptyInput
		return
	}
	ev.stage = StageValidatedInput

	p, err := s.prompt(req)
	if err != nil {
		ev.reason = ReasonPrompt
		s.log().Error(ctx, "prompt rendering failed", logger.Error(err))
		return
	}
	ev.stage = StagePrompted

	text, err := s.Generate(ctx, ev.id, p)
	if err != nil {
		ev.reason = generationReason(err)
		s.log().Warn(ctx, "generation failed",
			logger.String("reason", ev.reason),
			logger.Error(err),
		)
		return
	}
	ev.stage = StageGenerated
	ev.raw = text

	obj, ok := s.extractor.Extract(text)
	if !ok {
		ev.reason = ReasonNoCandidate
		return
	}
	ev.stage = StageExtracted

	r, ok := validate.Check(obj, ok)
	if !ok {
		ev.reason = ReasonInvalidScores
		return
	}
	ev.stage = StageValidatedOutput
	ev.result = r
}

func (s *Service) prompt(req model.Request) (string, error) {
	s.mu.RLock()
	b := s.builder
	s.mu.RUnlock()
	if b == nil {
		return "", ErrNotStarted
	}
	return b.Build(req.Theme, req.Input)
}

// Generate runs one prompt through the generation queue and waits for its reply.
func (s *Service) Generate(ctx context.Context, id, p string) (string, error) {
	s.mu.RLock()
	started, jobs, maxTokens, timeout := s.started, s.jobs, s.maxTokens, s.timeout
	s.mu.RUnlock()
	if !started {
		return "", ErrNotStarted
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	job := queue.NewJob(ctx, id, p, maxTokens)
	if err := jobs.Enqueue(ctx, job); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			return "", fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return "", err
	}

	select {
	case res := <-job.Reply:
		return res.Text, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Service) finish(ctx context.Context, ev *evaluation) {
	fields := []logger.Field{
		logger.String("stage", string(ev.stage)),
		logger.String("raw", ev.raw),
		logger.Int("persuasive", ev.result.Persuasive),
		logger.Int("empathy", ev.result.Empathy),
	}
	if ev.reason != "" {
		metrics.RecordEvaluation(OutcomeFallback)
		metrics.RecordFallback(ev.reason)
		s.log().Info(ctx, "evaluation fell back", append(fields, logger.String("reason", ev.reason))...)
		return
	}
	metrics.RecordEvaluation(OutcomeScored)
	metrics.RecordScores(ev.result.Persuasive, ev.result.Empathy)
	s.log().Info(ctx, "evaluation scored", fields...)
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// Info returns what the health endpoint reports.
func (s *Service) Info() model.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := model.Info{
		Started:            s.started,
		Snapshot:           s.snapshot,
		InstructionVersion: prompt.InstructionVersion,
	}
	if s.generator != nil {
		info.Provider = s.generator.Name()
		info.Model = s.generator.Model()
	}
	return info
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"maxTokens":   s.maxTokens,
	}

	if s.started {
		stats["queueLength"] = s.jobs.Len(ctx)
	}

	if totals, err := metrics.CounterTotals(evaluationsFamily, "outcome"); err == nil {
		stats["evaluations"] = totals
	}
	if totals, err := metrics.CounterTotals(fallbacksFamily, "reason"); err == nil {
		stats["fallbacks"] = totals
	}

	return stats
}
