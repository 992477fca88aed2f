package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nbadata/ingestion/internal/app"
	"nbadata/ingestion/internal/config"
	"nbadata/ingestion/internal/metrics"
	"nbadata/ingestion/internal/repository"
	"nbadata/ingestion/internal/scheduler"
	"nbadata/ingestion/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()
	app.SetupLogger(cfg, os.Stdout)

	os.Exit(run(cfg))
}

// run starts the worker and blocks until it is cancelled or, with the
// scheduler disabled, until the single sync finishes. It returns the
// process exit code.
func run(cfg *config.Config) int {
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("driver", cfg.DatabaseDriver).
		Msg("Starting NBA stats sync worker")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Received shutdown signal, gracefully shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize")
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort, a.Store())
	}

	// Update system uptime and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				samplePoolStats(a.Store())
			case <-ctx.Done():
				return
			}
		}
	}()

	jobs := []scheduler.Job{{
		Name: "games",
		Run: func(ctx context.Context) error {
			res, err := a.SyncGames(ctx)
			if err != nil {
				return err
			}
			log.Info().Msg(res.Summary())
			return nil
		},
	}}
	if cfg.SyncStats {
		jobs = append(jobs, scheduler.Job{
			Name: "stats",
			Run: func(ctx context.Context) error {
				_, err := a.SyncStats(ctx)
				return err
			},
		})
	}

	// Create and start scheduler
	sched := scheduler.NewScheduler(scheduler.Config{
		Spec:         cfg.SyncCron,
		RunOnStartup: cfg.RunOnStartup,
	}, jobs...)

	if !cfg.EnableScheduler {
		log.Info().Msg("Scheduler disabled, running a single sync")
		if failed := sched.RunOnce(ctx); failed > 0 {
			log.Error().Int("failed", failed).Msg("Sync failed")
			return 1
		}
		log.Info().Msg("Worker shutdown complete")
		return 0
	}

	if err := sched.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to start scheduler")
		return 1
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
	return 0
}

// samplePoolStats publishes connection pool gauges for the postgres backend
func samplePoolStats(store storage.Store) {
	if db, ok := store.(*repository.Database); ok {
		log.Debug().Fields(db.PoolStats()).Msg("Database pool stats")
	}
}

// newMetricsMux serves Prometheus metrics and a health check backed by store
func newMetricsMux(store storage.Store) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := store.Health(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	return mux
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int, store storage.Store) {
	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, newMetricsMux(store)); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
