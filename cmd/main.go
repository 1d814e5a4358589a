// Command zerodeadline runs the ZeroDeadline risk dashboard.
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

	"github.com/okian/zerodeadline/internal/adapters/calendar"
	"github.com/okian/zerodeadline/internal/adapters/http/api"
	"github.com/okian/zerodeadline/internal/adapters/http/site"
	"github.com/okian/zerodeadline/internal/adapters/http/swagger"
	"github.com/okian/zerodeadline/internal/adapters/llm"
	"github.com/okian/zerodeadline/internal/adapters/repository"
	app "github.com/okian/zerodeadline/internal/app"
	"github.com/okian/zerodeadline/internal/config"
	"github.com/okian/zerodeadline/internal/domain/history"
	"github.com/okian/zerodeadline/pkg/logger"
	"github.com/okian/zerodeadline/pkg/metrics"
	"github.com/okian/zerodeadline/pkg/retry"
)

// HTTP server timeout constants. Writes allow for LLM retries.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 2 * time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Data files under data_dir.
const (
	schedulesFile = "schedules.json"
	stressFile    = "stress_log.json"
	historyFile   = "risk_history.json"
	historyDB     = "risk_history.badger"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitWith(logger.Options{Format: cfg.LogFormat}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, closeStores, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// build wires the stores and external collaborators into a service. The
// returned func releases the stores.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	storeOpts := []repository.Option{repository.WithLogger(log.Named("repository"))}

	hist, closeHistory, err := openHistory(cfg, log, storeOpts)
	if err != nil {
		return nil, nil, err
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithLocation(loc),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithScheduleBook(repository.NewScheduleBook(cfg.Path(schedulesFile), storeOpts...)),
		app.WithStressLog(repository.NewStressLog(cfg.Path(stressFile), storeOpts...)),
		app.WithHistory(hist),
	}

	if cfg.LLMEnabled() {
		client, err := llm.NewOpenAI(llm.Config{APIKey: cfg.LLMAPIKey, BaseURL: cfg.LLMBaseURL, Model: cfg.LLMModel})
		if err != nil {
			closeHistory()
			return nil, nil, fmt.Errorf("llm client: %w", err)
		}
		opts = append(opts, app.WithAdvisor(llm.NewAdvisor(client,
			llm.WithRetryPolicy(retry.Policy{Attempts: cfg.LLMMaxAttempts, BaseDelay: cfg.LLMRetryBase()}),
			llm.WithAttemptTimeout(cfg.LLMTimeout()),
			llm.WithAdvisorLogger(log.Named("llm")),
		)))
	} else {
		log.Info(ctx, "llm_api_key not set; advice and chat are disabled")
	}

	if cfg.CalendarEnabled() {
		cal, err := calendar.NewGoogle(ctx, calendar.Config{
			CredentialsFile: cfg.CalendarCredentialsFile,
			Window:          time.Duration(cfg.CalendarWindowDays) * 24 * time.Hour,
			MaxResults:      int64(cfg.CalendarMaxResults),
			Location:        loc,
			Logger:          log.Named("calendar"),
		})
		if err != nil {
			log.Error(ctx, "calendar disabled", logger.Error(err))
		} else {
			opts = append(opts, app.WithCalendar(cal))
		}
	}

	return app.New(opts...), closeHistory, nil
}

func openHistory(cfg *config.Config, log logger.Logger, opts []repository.Option) (history.Store, func(), error) {
	if cfg.HistoryBackend != config.HistoryBackendBadger {
		return repository.NewHistoryFile(cfg.Path(historyFile), opts...), func() {}, nil
	}
	db, err := repository.OpenBadger(repository.BadgerConfig{
		Path:       cfg.Path(historyDB),
		SyncWrites: true,
		Logger:     log.Named("badger"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open history database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Error(context.Background(), "failed to close history database", logger.Error(err))
		}
	}
	return repository.NewHistoryBadger(db, opts...), closeDB, nil
}

// newHandler registers every route and wraps the mux with request ids.
func newHandler(ctx context.Context, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return api.RequestID(mux, log.Named("http"))
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

// startServiceMetricsUpdater refreshes the store gauges from GetStats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
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
