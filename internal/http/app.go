// Package http holds the pieces the router is assembled from.
package http

import (
	"context"

	"vhc_backend/platform/config"
	"vhc_backend/platform/logger"
)

// RouterConfig is the configuration the router reads: CORS and the access-token secret.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is a dependency /api/health pings before reporting ready.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to router.New once every dependency is built.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health lists the /api/health probes: the Postgres pool, then the KPI
	// redis cache. A nil cache reports healthy, so redis is checked only when
	// REDIS_URL is set and the connection succeeded at startup.
	Health []HealthChecker
	// Modules are mounted in order; health checks first, then exports.
	Modules []Module
}
