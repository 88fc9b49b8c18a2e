package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/sway/internal/app"
	"github.com/okian/sway/internal/domain/model"
	"github.com/okian/sway/pkg/logger"
	"github.com/okian/sway/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard, logger.FormatJSON); err != nil {
		panic(err)
	}
}

// stubGenerator counts calls and answers with reply or err.
type stubGenerator struct {
	reply   string
	err     error
	delay   time.Duration
	calls   atomic.Int64
	entered chan struct{}
	release chan struct{}
	prompts []string
	mu      sync.Mutex
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, _ int) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) Name() string  { return "stub" }
func (g *stubGenerator) Model() string { return "stub-model" }

func startService(t *testing.T, gen *stubGenerator, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(append([]service.Option{service.WithGenerator(gen)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

const body = `{"theme":"moon landing","input":"What made you start doubting it?"}`

func TestService_New(t *testing.T) {
	Convey("Given a new service without a generator", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(8))

		Convey("Then Start refuses to run", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrNoGenerator), ShouldBeTrue)
		})

		Convey("Then stats report it as stopped", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 8)
		})

		Convey("Then evaluations still fall back to zero", func() {
			So(svc.Evaluate(context.Background(), []byte(body)), ShouldResemble, model.ZeroResult())
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		gen := &stubGenerator{reply: `{"persuasive":3,"empathy":4}`}
		svc := startService(t, gen, service.WithSnapshot("abc123"))
		defer svc.Stop()

		So(svc.GetStats()["started"], ShouldEqual, true)
		info := svc.Info()
		So(info.Provider, ShouldEqual, "stub")
		So(info.Model, ShouldEqual, "stub-model")
		So(info.Snapshot, ShouldEqual, "abc123")
		So(info.InstructionVersion, ShouldNotBeEmpty)

		Convey("When starting twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("When stopping", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it is marked stopped and evaluations fall back", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Evaluate(context.Background(), []byte(body)), ShouldResemble, model.ZeroResult())
			})
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a service whose generator answers", t, func() {
		ctx := context.Background()

		Convey("When the reply holds a valid score object", func() {
			gen := &stubGenerator{reply: ` {"persuasive":3,"empathy":4}`}
			svc := startService(t, gen)
			defer svc.Stop()

			r := svc.Evaluate(ctx, []byte(body))

			Convey("Then the scores are returned", func() {
				So(r, ShouldResemble, model.Result{Persuasive: 3, Empathy: 4})
				So(gen.calls.Load(), ShouldEqual, 1)
				So(gen.prompts[0], ShouldContainSubstring, "Theme: moon landing\nMessage: What made you start doubting it?")
			})
		})

		Convey("When the reply has noise and several candidates", func() {
			gen := &stubGenerator{reply: `noise {foo:1} garbage {"persuasive":3,"empathy":4} trailing {"persuasive":5,"empathy":5}`}
			svc := startService(t, gen)
			defer svc.Stop()

			So(svc.Evaluate(ctx, []byte(body)), ShouldResemble, model.Result{Persuasive: 3, Empathy: 4})
		})

		Convey("When the payload is a single-quoted literal", func() {
			gen := &stubGenerator{reply: `{"persuasive":2,"empathy":5}`}
			svc := startService(t, gen)
			defer svc.Stop()

			lit := svc.Evaluate(ctx, []byte(`{'theme': 'moon landing', 'input': 'What made you start doubting it?'}`))
			strict := svc.Evaluate(ctx, []byte(body))

			Convey("Then it is judged like the JSON body", func() {
				So(lit, ShouldResemble, strict)
				So(gen.prompts[0], ShouldEqual, gen.prompts[1])
			})
		})

		Convey("When the reply is out of range", func() {
			svc := startService(t, &stubGenerator{reply: `{"persuasive":9,"empathy":2}`})
			defer svc.Stop()
			So(svc.Evaluate(ctx, []byte(body)), ShouldResemble, model.ZeroResult())
		})

		Convey("When the reply is not numeric", func() {
			svc := startService(t, &stubGenerator{reply: `{"persuasive":"high","empathy":3}`})
			defer svc.Stop()
			So(svc.Evaluate(ctx, []byte(body)), ShouldResemble, model.ZeroResult())
		})

		Convey("When the reply has no candidate", func() {
			svc := startService(t, &stubGenerator{reply: "I would rate this a four."})
			defer svc.Stop()
			So(svc.Evaluate(ctx, []byte(body)), ShouldResemble, model.ZeroResult())
		})

		Convey("When the generator fails", func() {
			svc := startService(t, &stubGenerator{err: errors.New("device lost")})
			defer svc.Stop()
			So(svc.Evaluate(ctx, []byte(body)), ShouldResemble, model.ZeroResult())
		})
	})
}

func TestService_EmptyInput(t *testing.T) {
	Convey("Given a service with a call-counting generator", t, func() {
		gen := &stubGenerator{reply: `{"persuasive":5,"empathy":5}`}
		svc := startService(t, gen)
		defer svc.Stop()

		Convey("When theme or input is missing or blank", func() {
			bodies := []string{
				``,
				`   `,
				`{}`,
				`{"theme":"x"}`,
				`{"input":"y"}`,
				`{"theme":"   ","input":"y"}`,
				`{"theme":"x","input":"\n\t"}`,
				`not a mapping`,
				`[1,2,3]`,
			}
			for _, b := range bodies {
				So(svc.Evaluate(context.Background(), []byte(b)), ShouldResemble, model.ZeroResult())
			}

			Convey("Then the generator is never invoked", func() {
				So(gen.calls.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Timeout(t *testing.T) {
	Convey("Given a generator slower than the timeout", t, func() {
		gen := &stubGenerator{reply: `{"persuasive":3,"empathy":3}`, delay: time.Second}
		svc := startService(t, gen, service.WithTimeout(20*time.Millisecond))
		defer svc.Stop()

		start := time.Now()
		r := svc.Evaluate(context.Background(), []byte(body))

		Convey("Then the zero result comes back at the deadline", func() {
			So(r, ShouldResemble, model.ZeroResult())
			So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given one worker and room for one waiting job", t, func() {
		gen := &stubGenerator{
			reply:   `{"persuasive":4,"empathy":4}`,
			entered: make(chan struct{}, 4),
			release: make(chan struct{}),
		}
		var once sync.Once
		release := func() { once.Do(func() { close(gen.release) }) }
		svc := startService(t, gen, service.WithWorkerCount(1), service.WithQueueSize(1))
		defer svc.Stop()
		defer release()

		before, err := metrics.CounterTotals("sway_evaluator_fallbacks_total", "reason")
		So(err, ShouldBeNil)

		results := make(chan model.Result, 2)
		go func() { results <- svc.Evaluate(context.Background(), []byte(body)) }()
		<-gen.entered

		go func() { results <- svc.Evaluate(context.Background(), []byte(body)) }()
		deadline := time.Now().Add(time.Second)
		for svc.GetStats()["queueLength"] != 1 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		Convey("When a third evaluation arrives", func() {
			r := svc.Evaluate(context.Background(), []byte(body))

			Convey("Then it falls back immediately without blocking", func() {
				So(r, ShouldResemble, model.ZeroResult())
				after, _ := metrics.CounterTotals("sway_evaluator_fallbacks_total", "reason")
				So(after["backpressure"]-before["backpressure"], ShouldEqual, 1.0)
			})

			Convey("Then the queued evaluations complete once the worker frees up", func() {
				release()
				So(<-results, ShouldResemble, model.Result{Persuasive: 4, Empathy: 4})
				So(<-results, ShouldResemble, model.Result{Persuasive: 4, Empathy: 4})
				So(gen.calls.Load(), ShouldEqual, 2)
			})
		})
	})
}

func TestService_ConcurrentEvaluations(t *testing.T) {
	Convey("Given many concurrent requests and a single worker", t, func() {
		gen := &stubGenerator{reply: `{"persuasive":1,"empathy":2}`, delay: time.Millisecond}
		svc := startService(t, gen, service.WithQueueSize(64))
		defer svc.Stop()

		var wg sync.WaitGroup
		results := make(chan model.Result, 32)
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- svc.Evaluate(context.Background(), []byte(body))
			}()
		}
		wg.Wait()
		close(results)

		Convey("Then every response is a valid pair", func() {
			for r := range results {
				So(r.InRange(), ShouldBeTrue)
				So(r, ShouldResemble, model.Result{Persuasive: 1, Empathy: 2})
			}
		})
	})
}

func TestService_Stats(t *testing.T) {
	Convey("Given evaluations that score and fall back", t, func() {
		svc := startService(t, &stubGenerator{reply: `{"persuasive":2,"empathy":2}`})
		defer svc.Stop()

		before := svc.GetStats()
		svc.Evaluate(context.Background(), []byte(body))
		svc.Evaluate(context.Background(), []byte(`{}`))
		after := svc.GetStats()

		Convey("Then counters are reported by outcome and reason", func() {
			b := before["evaluations"].(map[string]float64)
			a := after["evaluations"].(map[string]float64)
			So(a["scored"]-b["scored"], ShouldEqual, 1.0)
			So(a["fallback"]-b["fallback"], ShouldEqual, 1.0)

			fb := before["fallbacks"].(map[string]float64)
			fa := after["fallbacks"].(map[string]float64)
			So(fa["empty_input"]-fb["empty_input"], ShouldEqual, 1.0)
		})
	})
}
