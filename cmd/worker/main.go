// The worker runs the background side of Reserva: it drains the
// transactional outbox to the event bus, delivers notifications and cache
// invalidations, mirrors commitments to CalDAV, and serves health endpoints.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/reserva/internal/app"
	"github.com/felixgeelhaar/reserva/internal/notifications"
	schedulingCache "github.com/felixgeelhaar/reserva/internal/scheduling/infrastructure/cache"
	"github.com/felixgeelhaar/reserva/internal/scheduling/infrastructure/caldav"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reserva/pkg/config"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	logger := observability.NewLogger(logCfg)

	logger.Info("starting reserva worker")

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Register event consumers. Without RabbitMQ the container falls back to
	// the in-process bus and the outbox processor dispatches synchronously.
	var consumers []eventbus.EventConsumer

	if cfg.WebhookEndpoint != "" {
		webhookCfg := notifications.DefaultWebhookConfig(cfg.WebhookEndpoint)
		webhookCfg.Secret = cfg.WebhookSecret
		notifier := notifications.NewWebhookNotifier(webhookCfg, logger)
		consumers = append(consumers, notifications.NewCommitmentConsumer(notifier, logger))
		logger.Info("webhook notifications enabled", "endpoint", cfg.WebhookEndpoint)
	}

	if container.AvailabilityCache != nil {
		consumers = append(consumers, schedulingCache.NewInvalidator(container.AvailabilityCache, logger))
		logger.Info("availability cache invalidation enabled")
	}

	if len(consumers) > 0 {
		if container.InProcessEventBus != nil {
			for _, consumer := range consumers {
				container.InProcessEventBus.RegisterConsumer(consumer)
			}
		} else {
			registry := eventbus.NewConsumerRegistry(logger)
			rabbitConsumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
				URL:    cfg.RabbitMQURL,
				Logger: logger,
			}, registry)
			if err != nil {
				logger.Error("failed to connect RabbitMQ consumer", "error", err)
				os.Exit(1)
			}
			defer rabbitConsumer.Close()

			for _, consumer := range consumers {
				rabbitConsumer.RegisterConsumer(consumer)
			}
			go func() {
				if err := rabbitConsumer.Start(ctx); err != nil && ctx.Err() == nil {
					logger.Error("RabbitMQ consumer stopped", "error", err)
					cancel()
				}
			}()
		}
	}

	// Start outbox processing
	logger.Info("starting outbox processor",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
	)
	if err := container.OutboxProcessor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	// Periodically drop published outbox rows past retention
	cleanupTicker := time.NewTicker(cfg.OutboxCleanupInterval)
	defer cleanupTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-cleanupTicker.C:
				deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
				if err != nil {
					logger.Error("outbox cleanup failed", "error", err)
					continue
				}
				if deleted > 0 {
					logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
				}
			}
		}
	}()

	// Mirror active commitments to CalDAV
	if cfg.CalDAVURL != "" {
		mirror := caldav.NewMirror(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, logger)
		if cfg.CalDAVCalendarPath != "" {
			mirror = mirror.WithCalendarPath(cfg.CalDAVCalendarPath)
		}
		logger.Info("CalDAV mirror enabled", "url", cfg.CalDAVURL, "sync_interval", cfg.CalDAVSyncInterval)

		mirrorTicker := time.NewTicker(cfg.CalDAVSyncInterval)
		defer mirrorTicker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-mirrorTicker.C:
					runMirrorPass(ctx, container, mirror, logger)
				}
			}
		}()
	}

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg, container, logger)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")

	container.OutboxProcessor.Stop()
	logger.Info("worker stopped")
}

// mirrorHorizon bounds how far ahead commitments are pushed to CalDAV.
const mirrorHorizon = 90 * 24 * time.Hour

// runMirrorPass publishes every active resource's upcoming commitments. A
// failing resource is logged and skipped so the others still sync.
func runMirrorPass(ctx context.Context, container *app.Container, mirror *caldav.Mirror, logger *slog.Logger) {
	resources, err := container.ResourceRepo.ListActive(ctx)
	if err != nil {
		logger.Error("caldav mirror pass failed to list resources", "error", err)
		return
	}

	from := time.Now().UTC()
	to := from.Add(mirrorHorizon)

	for _, resource := range resources {
		commitments, err := container.CommitmentRepo.FindByResourceAndRange(ctx, resource.ID(), from, to)
		if err != nil {
			logger.Error("caldav mirror pass failed to load commitments",
				"resource_id", resource.ID(), "error", err)
			continue
		}

		result, err := mirror.Publish(ctx, resource, commitments)
		if err != nil {
			logger.Error("caldav mirror pass failed",
				"resource_id", resource.ID(), "error", err)
			continue
		}
		if result.Created+result.Updated+result.Deleted+result.Failed > 0 {
			logger.Info("caldav mirror pass completed",
				"resource_id", resource.ID(),
				"created", result.Created,
				"updated", result.Updated,
				"deleted", result.Deleted,
				"failed", result.Failed,
			)
		}
	}
}

// startHealthServer exposes liveness and readiness endpoints for the worker.
func startHealthServer(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) {
	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(container.Conn.Ping))
	if container.RedisClient != nil {
		health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return container.RedisClient.Ping(ctx).Err()
		}))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		overall := health.GetOverallHealth(checkCtx)
		w.Header().Set("Content-Type", "application/json")
		if overall.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(overall)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := container.Conn.Ping(checkCtx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
	})

	healthSrv := &http.Server{
		Addr:              cfg.WorkerHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}
