package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sway/internal/adapters/mq/queue"
	"github.com/okian/sway/pkg/logger"
	"github.com/okian/sway/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Generator is the collaborator a worker calls.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Name() string
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *queue.Job
}

// Worker runs jobs one at a time.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. A single worker never runs two
// generations at once.
type InMemoryWorker struct {
	queue     Queue
	generator Generator
	name      string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, g Generator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		generator: g,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			job.Respond(w.process(ctx, job))
		}
	}
}

// Shutdown gracefully stops the worker. It may be called more than once.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// process runs one generation. It never panics.
func (w *InMemoryWorker) process(ctx context.Context, job *queue.Job) (res queue.Result) {
	if job.Expired() {
		metrics.RecordWorkerJobDropped()
		w.logger.Debug(ctx, "dropping expired job", logger.String("job_id", job.ID))
		return queue.Result{Err: fmt.Errorf("%w: %w", ErrJobExpired, job.Ctx.Err())}
	}

	metrics.WorkerBusy()
	defer metrics.WorkerIdle()

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordGenerationError(w.generator.Name())
			w.logger.Error(ctx, "generator panicked",
				logger.String("job_id", job.ID),
				logger.Any("panic", r),
			)
			res = queue.Result{Err: fmt.Errorf("%w: %v", ErrGeneratorPanic, r)}
		}
	}()

	start := time.Now()
	text, err := w.generator.Generate(job.Ctx, job.Prompt, job.MaxTokens)
	metrics.RecordGenerationLatency(time.Since(start).Seconds())

	if err != nil {
		metrics.RecordGenerationError(w.generator.Name())
		w.logger.Error(ctx, "generation failed",
			logger.String("job_id", job.ID),
			logger.String("provider", w.generator.Name()),
			logger.Error(err),
		)
		return queue.Result{Err: err}
	}
	return queue.Result{Text: text}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	started atomic.Bool

	logger logger.Logger
}

// NewPool creates a new worker pool. Counts below one become one.
func NewPool(workerCount int, q Queue, g Generator, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, g, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.started.Store(true)
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Shutdown closes the queue, waits for running jobs and fails the ones left waiting.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for _, worker := range p.workers {
		worker.stop()
	}

	if p.started.Load() {
		p.awaitWorkers(ctx)
	}

	drained := 0
	for {
		select {
		case job, ok := <-p.queue.Dequeue(ctx):
			if !ok {
				p.logDrained(ctx, drained)
				return nil
			}
			job.Respond(queue.Result{Err: ErrStopped})
			drained++
		default:
			p.logDrained(ctx, drained)
			return nil
		}
	}
}

func (p *Pool) awaitWorkers(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
}

func (p *Pool) logDrained(ctx context.Context, n int) {
	if n > 0 {
		p.logger.Info(ctx, "failed queued jobs on shutdown", logger.Int("jobs", n))
	}
}
