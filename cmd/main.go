package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/raffle/internal/adapters/http/api"
	"github.com/okian/raffle/internal/adapters/http/swagger"
	"github.com/okian/raffle/internal/adapters/http/ws"
	"github.com/okian/raffle/internal/adapters/mq/worker"
	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/adapters/roster"
	app "github.com/okian/raffle/internal/app"
	"github.com/okian/raffle/internal/config"
	"github.com/okian/raffle/pkg/logger"
	"github.com/okian/raffle/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We export our own system metrics; drop the defaults to avoid duplicates.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// A local .env is optional; real environment variables win.
	if err := loadDotEnv(".env"); err != nil {
		os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		// Logger isn't available yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.InitWithWriter(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	hub := ws.NewHub(ws.WithLogger(log.Named("feed")))
	go hub.Run(ctx)
	defer hub.Stop()

	svc, err := buildService(ctx, cfg, log, hub)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc, hub).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// loadDotEnv loads path into the environment when it exists.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// buildService loads the roster, opens the ledger and assembles the service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger, publishers ...worker.Publisher) (*app.Service, error) {
	guides, err := roster.Load(cfg.RosterPath)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "roster loaded", logger.String("path", cfg.RosterPath), logger.Int("guides", len(guides)))

	ledger, err := repository.Open(ctx, cfg.LedgerDriver, cfg.LedgerDSN, log.Named("ledger"))
	if err != nil {
		return nil, err
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithRoster(guides),
		app.WithLedger(ledger),
		app.WithLedgerOpener(func(ctx context.Context) (repository.Store, error) {
			return repository.Open(ctx, cfg.LedgerDriver, cfg.LedgerDSN, log.Named("ledger"))
		}),
		app.WithSettings(cfg.Settings()),
		app.WithSeed(cfg.RNGSeed),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithNotifyWorkers(cfg.NotifyWorkers),
		app.WithRequestKeys(cfg.RequestKeys),
		app.WithPublishers(publishers...),
	}
	return app.New(opts...), nil
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

// startServiceMetricsUpdater refreshes the gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
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
func updateServiceMetrics(svc *app.Service) {
	// GetStats refreshes the ledger and queue gauges itself.
	stats := svc.GetStats()

	if n, ok := stats["rosterSize"].(int); ok {
		metrics.UpdateRosterSize(n)
	}
}
