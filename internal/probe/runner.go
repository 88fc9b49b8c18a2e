package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/sway/pkg/logger"
)

// Run checks health, submits cfg.Requests cases concurrently, and verifies
// every response. It returns ErrChecksFailed if any response broke the contract.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("probe")

	log.Info(ctx, "starting evaluator probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.Timeout)
	if err := checkHealth(ctx, client, cfg.BaseURL); err != nil {
		return stats, err
	}

	outcomes := submit(ctx, client, cfg, Cases(cfg.Requests))
	for _, o := range outcomes {
		stats.Submitted++
		switch {
		case o.Err != nil:
			stats.Failed++
			log.Error(ctx, "check failed",
				logger.String("case", o.Case.Name),
				logger.String(logger.RequestIDKey, o.RequestID),
				logger.Error(o.Err))
		default:
			stats.Passed++
			if o.Persuasive == 0 && o.Empathy == 0 {
				stats.Zero++
			}
			if cfg.Verbose {
				log.Info(ctx, "check passed",
					logger.String("case", o.Case.Name),
					logger.String(logger.RequestIDKey, o.RequestID),
					logger.Int("persuasive", o.Persuasive),
					logger.Int("empathy", o.Empathy))
			}
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrChecksFailed, stats.Failed, stats.Submitted)
	}
	return stats, nil
}

func checkHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// submit fans cases out to cfg.Workers senders. Outcomes keep case order.
func submit(ctx context.Context, client *HTTPClient, cfg *Config, cases []Case) []Outcome {
	outcomes := make([]Outcome, len(cases))
	idx := make(chan int, max(cfg.Workers, 1)*2)
	url := cfg.BaseURL + "/"

	var wg sync.WaitGroup
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				outcomes[i] = submitOne(ctx, client, url, cases[i])
			}
		}()
	}

	for i := range cases {
		if ctx.Err() != nil {
			outcomes[i] = Outcome{Case: cases[i], Err: ctx.Err()}
			continue
		}
		idx <- i
	}
	close(idx)
	wg.Wait()

	return outcomes
}

func submitOne(ctx context.Context, client *HTTPClient, url string, c Case) Outcome {
	id, status, body, err := client.Post(ctx, url, c.Body)
	o := Outcome{Case: c, RequestID: id, StatusCode: status}
	if err != nil {
		o.Err = err
		return o
	}
	o.Persuasive, o.Empathy, o.Err = Verify(c, status, body)
	if errors.Is(o.Err, ErrNotZero) {
		o.Err = fmt.Errorf("%w (body %q)", o.Err, c.Body)
	}
	return o
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var rps float64
	if stats.Duration > 0 {
		rps = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("submitted", stats.Submitted),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("zero", stats.Zero),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", rps))
}
