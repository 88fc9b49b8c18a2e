package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/sway/internal/adapters/artifact"
	"github.com/okian/sway/internal/adapters/http/api"
	"github.com/okian/sway/internal/adapters/http/swagger"
	"github.com/okian/sway/internal/adapters/llm"
	service "github.com/okian/sway/internal/app"
	"github.com/okian/sway/internal/config"
	"github.com/okian/sway/internal/domain/prompt"
	"github.com/okian/sway/pkg/logger"
	"github.com/okian/sway/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	writeTimeoutSlack         = 5 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Fatal(ctx, "failed to build evaluation service", logger.Error(err))
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Fatal(ctx, "failed to start evaluation service", logger.Error(err))
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := newHTTPServer(ctx, cfg, svc)

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	svc.Stop()

	loggerInstance.Info(ctx, "server stopped")
}

// newService resolves the model snapshot, builds the prompt and the
// generation collaborator, and assembles the evaluation service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	// The snapshot is checked and reported only; providers load weights themselves.
	var commit string
	if cfg.Model.CacheDir != "" {
		snap, err := artifact.NewResolver(cfg.Model.CacheDir).Resolve(cfg.Model.Ref)
		if err != nil {
			return nil, fmt.Errorf("resolve model artifact: %w", err)
		}
		commit = snap.Commit
		log.Info(ctx, "model artifact resolved",
			logger.String("ref", snap.Ref),
			logger.String("commit", snap.Commit),
			logger.String("dir", snap.Dir),
			logger.String("model_type", snap.ModelType),
		)
	}

	var promptOpts []prompt.Option
	if cfg.Prompt.TemplatePath != "" {
		promptOpts = append(promptOpts, prompt.WithTemplatePath(cfg.Prompt.TemplatePath))
	}
	builder, err := prompt.New(promptOpts...)
	if err != nil {
		return nil, err
	}

	gen, err := llm.New(ctx, cfg.LLM, cfg.Generation.Seed)
	if err != nil {
		return nil, err
	}

	return service.New(
		service.WithLogger(log.Named("evaluator")),
		service.WithGenerator(gen),
		service.WithPromptBuilder(builder),
		service.WithWorkerCount(cfg.Generation.Workers),
		service.WithQueueSize(cfg.Generation.QueueSize),
		service.WithMaxTokens(cfg.Generation.MaxTokens),
		service.WithTimeout(cfg.Generation.Timeout),
		service.WithSnapshot(commit),
	), nil
}

// newHTTPServer registers the API and docs routes behind CORS.
func newHTTPServer(ctx context.Context, cfg *config.Config, svc *service.Service) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	swagger.Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.CORS(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeoutFor(cfg.Generation.Timeout),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// writeTimeoutFor keeps the write deadline past the generation deadline so
// a fallback response can still be written. Zero generation timeout disables it.
func writeTimeoutFor(generation time.Duration) time.Duration {
	if generation <= 0 {
		return 0
	}
	return max(writeTimeout, generation+writeTimeoutSlack)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
