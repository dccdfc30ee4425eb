package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"vhc_backend/internal/exports"
	"vhc_backend/internal/healthchecks"
	"vhc_backend/internal/healthchecks/service"
	"vhc_backend/internal/scheduler"
	"vhc_backend/platform/cache"
	"vhc_backend/platform/config"
	"vhc_backend/platform/db"
	"vhc_backend/platform/events"
	"vhc_backend/platform/logger"
	"vhc_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	settings, err := service.LoadSettings(cfg)
	if err != nil {
		log.Error("failed to load board settings", "error", err)
		panic("failed to load board settings: " + err.Error())
	}

	// Sweep transitions invalidate cached KPIs as well.
	var kpiCache service.KPICache
	if c, err := cache.New(ctx, cfg, "vhc:"); err != nil {
		log.Warn("redis cache unavailable; KPI invalidation disabled", "error", err)
	} else if c != nil {
		defer func() { _ = c.Close() }()
		kpiCache = c
	}

	// Worker-side wiring (no HTTP handlers required).
	healthChecksModule, err := healthchecks.NewModule(pool, settings, eventBus, kpiCache, validator.New(), log)
	if err != nil {
		log.Error("failed to initialize health checks module", "error", err)
		panic("failed to initialize health checks module: " + err.Error())
	}
	svc := healthChecksModule.Service()

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewSweepDispatcher(svc, client, log, cfg.GetSLASweepInterval())
	go dispatcher.Run(ctx)

	cleanupInterval := getDurationEnv("EXPORT_LOG_CLEANUP_INTERVAL", 24*time.Hour)
	retention := time.Duration(getPositiveIntEnv("EXPORT_LOG_RETENTION_DAYS", 90)) * 24 * time.Hour
	exportLogCleanup := scheduler.NewExportLogCleanup(exports.NewRepository(pool), log, cleanupInterval, retention)
	go exportLogCleanup.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
