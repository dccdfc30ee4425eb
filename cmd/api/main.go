package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vhc_backend/internal/exports"
	"vhc_backend/internal/healthchecks"
	"vhc_backend/internal/healthchecks/service"
	apphttp "vhc_backend/internal/http"
	"vhc_backend/internal/http/router"
	"vhc_backend/platform/cache"
	"vhc_backend/platform/config"
	"vhc_backend/platform/db"
	"vhc_backend/platform/events"
	"vhc_backend/platform/logger"
	"vhc_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const cacheKeyPrefix = "vhc:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var applied int
	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		n, err := db.RunMigrations(ctx, cfg)
		applied = n
		return err
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete", "applied", applied)

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
	log.Info("database connection established")

	kpiCache, err := cache.New(ctx, cfg, cacheKeyPrefix)
	if err != nil {
		log.Warn("redis unavailable; KPI caching disabled", "error", err)
		kpiCache = nil
	}
	defer func() { _ = kpiCache.Close() }()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	settings, err := service.LoadSettings(cfg)
	if err != nil {
		log.Error("failed to load board settings", "error", err)
		panic("failed to load board settings: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	var moduleCache service.KPICache
	if kpiCache != nil {
		moduleCache = kpiCache
	}
	healthChecksModule, err := healthchecks.NewModule(pool, settings, eventBus, moduleCache, val, log)
	if err != nil {
		log.Error("failed to initialize health checks module", "error", err)
		panic("failed to initialize health checks module: " + err.Error())
	}
	exportsModule := exports.NewModule(pool, healthChecksModule.Service(), val, log, settings.Location)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: []apphttp.HealthChecker{db.NewPoolAdapter(pool), kpiCache},
		Modules: []apphttp.Module{
			healthChecksModule,
			exportsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
