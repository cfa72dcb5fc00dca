package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/homebase/internal/app"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/homebase/pkg/config"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

const (
	cleanupInterval = time.Hour
	statsInterval   = time.Minute
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevel(cfg.LogLevel),
		Format:      observability.LogFormat(cfg.LogFormat),
		Output:      os.Stdout,
		ServiceName: "homebase-worker",
		Version:     version,
	})
	logger.Info("starting homebase worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	processor := container.OutboxProcessor
	logger.Info("starting outbox processor",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
	)
	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	if cfg.HasRabbitMQ() && container.LocalBus == nil {
		consumer, err := startRefreshConsumer(ctx, cfg, container, logger)
		if err != nil {
			logger.Error("failed to start refresh consumer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = consumer.Close() }()
	}

	go runCleanup(ctx, processor, cfg.OutboxRetention, logger)
	go runStats(ctx, processor, container.Metrics, logger)

	if cfg.WorkerHealthAddr != "" {
		serveHealth(ctx, cfg.WorkerHealthAddr, processor, container.Health, container.Metrics, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
	processor.Stop()
	logger.Info("worker stopped")
}

// startRefreshConsumer binds the refresh subscriber to the broker so writes
// from any process invalidate cached agendas.
func startRefreshConsumer(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) (*eventbus.RabbitMQConsumer, error) {
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    cfg.RabbitMQURL,
		Logger: logger,
	}, eventbus.NewRouter(logger))
	if err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(container.RefreshSubscriber); err != nil {
		_ = consumer.Close()
		return nil, err
	}
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh consumer stopped", "error", err)
		}
	}()
	return consumer, nil
}

func runCleanup(ctx context.Context, processor *outbox.Processor, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := processor.Cleanup(ctx)
			if err != nil {
				logger.Error("outbox cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("outbox cleanup completed", "deleted", deleted, "retention", retention)
			}
		}
	}
}

func runStats(ctx context.Context, processor *outbox.Processor, metrics observability.Metrics, logger *slog.Logger) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := processor.Stats()
			backlog, err := processor.Backlog(ctx)
			if err != nil {
				logger.Warn("failed to read outbox backlog", "error", err)
			}
			metrics.Gauge(observability.MetricOutboxBacklog, float64(backlog.Pending), observability.T("state", "pending"))
			metrics.Gauge(observability.MetricOutboxBacklog, float64(backlog.Retrying), observability.T("state", "retrying"))
			metrics.Gauge(observability.MetricOutboxBacklog, float64(backlog.Dead), observability.T("state", "dead"))
			level := slog.LevelInfo
			if backlog.Stuck() {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "outbox stats",
				"running", stats.Running,
				"published", stats.Published,
				"retried", stats.Retried,
				"dead", stats.Dead,
				"lag", stats.Lag,
				"last_error", stats.LastError,
				"pending", backlog.Pending,
				"retrying", backlog.Retrying,
				"dead_lettered", backlog.Dead,
			)
		}
	}
}

func serveHealth(ctx context.Context, addr string, processor *outbox.Processor, health *observability.HealthRegistry, metrics *observability.InMemoryMetrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.Stats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"running":       stats.Running,
			"published":     stats.Published,
			"retried":       stats.Retried,
			"dead":          stats.Dead,
			"lag_seconds":   stats.Lag.Seconds(),
			"last_batch_at": stats.LastBatchAt,
			"last_error_at": stats.LastErrorAt,
			"last_error":    stats.LastError,
		})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		overall := health.GetOverallHealth(r.Context())
		status := http.StatusOK
		if overall.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, overall)
	})

	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
