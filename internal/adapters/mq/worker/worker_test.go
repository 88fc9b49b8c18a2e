package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/sway/internal/adapters/mq/queue"
	worker "github.com/okian/sway/internal/adapters/mq/worker"
	logging "github.com/okian/sway/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const replyTimeout = time.Second

// Mock implementations for testing.
type mockQueue struct {
	jobs chan *queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan *queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan *queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(ctx context.Context, id string) *queue.Job {
	job := queue.NewJob(ctx, id, "prompt-"+id, 32)
	mq.jobs <- job
	return job
}

// mockGenerator echoes the prompt and tracks how many calls overlap.
type mockGenerator struct {
	delay    time.Duration
	errs     map[string]error
	panics   bool
	calls    atomic.Int64
	inflight atomic.Int64
	maxSeen  atomic.Int64
	mu       sync.RWMutex
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{errs: make(map[string]error)}
}

func (mg *mockGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	mg.calls.Add(1)
	n := mg.inflight.Add(1)
	defer mg.inflight.Add(-1)
	for {
		seen := mg.maxSeen.Load()
		if n <= seen || mg.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if mg.panics {
		panic("boom")
	}
	mg.mu.RLock()
	err := mg.errs[prompt]
	mg.mu.RUnlock()
	if err != nil {
		return "", err
	}

	select {
	case <-time.After(mg.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("%s/%d", prompt, maxTokens), nil
}

func (mg *mockGenerator) Name() string { return "mock" }

func (mg *mockGenerator) setError(prompt string, err error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	mg.errs[prompt] = err
}

func await(job *queue.Job) (queue.Result, bool) {
	select {
	case r := <-job.Reply:
		return r, true
	case <-time.After(replyTimeout):
		return queue.Result{}, false
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.InitWithWriter(io.Discard, logging.FormatText)

		q := newMockQueue()
		gen := newMockGenerator()

		convey.Convey("When creating a worker with options", func() {
			w := worker.NewInMemoryWorker(q, gen, worker.WithName("test-worker"), worker.WithLogger(logging.Nop()))

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(q, gen)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go w.Run(ctx)

			convey.Convey("And a job is queued", func() {
				job := q.add(context.Background(), "a")
				res, ok := await(job)

				convey.Convey("Then the generation is sent back", func() {
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(res.Err, convey.ShouldBeNil)
					convey.So(res.Text, convey.ShouldEqual, "prompt-a/32")
				})
			})

			convey.Convey("And the generator fails", func() {
				boom := errors.New("backend down")
				gen.setError("prompt-b", boom)
				res, ok := await(q.add(context.Background(), "b"))

				convey.Convey("Then the error is sent back", func() {
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(errors.Is(res.Err, boom), convey.ShouldBeTrue)
				})
			})

			convey.Convey("And the job expired while queued", func() {
				expired, expire := context.WithCancel(context.Background())
				expire()
				res, ok := await(q.add(expired, "c"))

				convey.Convey("Then the generator is not called", func() {
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(errors.Is(res.Err, worker.ErrJobExpired), convey.ShouldBeTrue)
					convey.So(gen.calls.Load(), convey.ShouldEqual, 0)
				})
			})

			convey.Convey("And shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the generator panics", func() {
			gen.panics = true
			w := worker.NewInMemoryWorker(q, gen)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			res, ok := await(q.add(context.Background(), "d"))

			convey.Convey("Then the worker survives and reports it", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(errors.Is(res.Err, worker.ErrGeneratorPanic), convey.ShouldBeTrue)

				gen.panics = false
				res, ok = await(q.add(context.Background(), "e"))
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.Text, convey.ShouldEqual, "prompt-e/32")
			})
		})

		convey.Convey("When Shutdown is called twice", func() {
			w := worker.NewInMemoryWorker(q, gen)
			go w.Run(context.Background())

			convey.Convey("Then the second call is a no-op", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(func() { _ = w.Shutdown(shutdownCtx) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the queue channel is closed", func() {
			w := worker.NewInMemoryWorker(q, gen)
			go w.Run(context.Background())
			_ = q.Close()

			convey.Convey("Then the worker stops", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.InitWithWriter(io.Discard, logging.FormatText)

		q := newMockQueue()
		gen := newMockGenerator()
		gen.delay = 5 * time.Millisecond

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, gen)
			convey.So(pool.Size(), convey.ShouldEqual, 1)
		})

		convey.Convey("When a single worker serves concurrent jobs", func() {
			pool := worker.NewPool(1, q, gen)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			var jobs []*queue.Job
			for i := 0; i < 8; i++ {
				jobs = append(jobs, q.add(context.Background(), fmt.Sprint(i)))
			}
			for _, job := range jobs {
				res, ok := await(job)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.Err, convey.ShouldBeNil)
			}

			convey.Convey("Then generations never overlap", func() {
				convey.So(gen.calls.Load(), convey.ShouldEqual, 8)
				convey.So(gen.maxSeen.Load(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When several workers run", func() {
			pool := worker.NewPool(3, q, gen)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			var jobs []*queue.Job
			for i := 0; i < 9; i++ {
				jobs = append(jobs, q.add(context.Background(), fmt.Sprint(i)))
			}
			for _, job := range jobs {
				_, ok := await(job)
				convey.So(ok, convey.ShouldBeTrue)
			}

			convey.Convey("Then at most that many generations overlap", func() {
				convey.So(gen.maxSeen.Load(), convey.ShouldBeLessThanOrEqualTo, 3)
			})
		})

		convey.Convey("When a started pool is shut down twice", func() {
			pool := worker.NewPool(2, q, gen)
			pool.Start(context.Background())

			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(func() { _ = pool.Shutdown(context.Background()) }, convey.ShouldNotPanic)
		})

		convey.Convey("When shutting down with jobs still queued", func() {
			pool := worker.NewPool(1, q, gen)
			job := q.add(context.Background(), "late")

			err := pool.Shutdown(context.Background())

			convey.Convey("Then waiting callers are released", func() {
				convey.So(err, convey.ShouldBeNil)
				res, ok := await(job)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(errors.Is(res.Err, worker.ErrStopped), convey.ShouldBeTrue)
			})
		})
	})
}
