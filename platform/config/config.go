// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// MigrationConfig provides settings for the schema migration runner.
type MigrationConfig interface {
	DatabaseConfig
	GetMigrationsDir() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the shared redis connection.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSLASweepInterval() time.Duration
}

// BoardConfig provides the tunables of the workflow board and KPI endpoints.
type BoardConfig interface {
	GetBoardConfigPath() string
	GetTerminalStatuses() []string
	GetSLAExpiryWindow() time.Duration
	GetAdvisorMinHealthChecks() int
	GetKPICacheTTL() time.Duration
	GetTimezone() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	MigrationsDir          string
	JWTAccessSecret        string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	SLASweepInterval       time.Duration
	BoardConfigPath        string
	TerminalStatuses       []string
	SLAExpiryWindow        time.Duration
	AdvisorMinHealthChecks int
	KPICacheTTL            time.Duration
	Timezone               string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetMigrationsDir() string { return c.MigrationsDir }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetSLASweepInterval() time.Duration { return c.SLASweepInterval }

// BoardConfig implementation
func (c *Config) GetBoardConfigPath() string        { return c.BoardConfigPath }
func (c *Config) GetTerminalStatuses() []string     { return c.TerminalStatuses }
func (c *Config) GetSLAExpiryWindow() time.Duration { return c.SLAExpiryWindow }
func (c *Config) GetAdvisorMinHealthChecks() int    { return c.AdvisorMinHealthChecks }
func (c *Config) GetKPICacheTTL() time.Duration     { return c.KPICacheTTL }
func (c *Config) GetTimezone() string               { return c.Timezone }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		MigrationsDir:          getEnv("MIGRATIONS_DIR", "migrations"),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SLASweepInterval:       mustDuration(getEnv("SLA_SWEEP_INTERVAL", "5m")),
		BoardConfigPath:        getEnv("BOARD_CONFIG_PATH", ""),
		TerminalStatuses:       splitCSV(getEnv("BOARD_TERMINAL_STATUSES", "completed,cancelled,expired,no_show")),
		SLAExpiryWindow:        mustDuration(getEnv("SLA_EXPIRY_WINDOW", "24h")),
		AdvisorMinHealthChecks: mustInt(getEnv("KPI_ADVISOR_MIN_HEALTH_CHECKS", "5")),
		KPICacheTTL:            mustDuration(getEnv("KPI_CACHE_TTL", "5m")),
		Timezone:               getEnv("APP_TIMEZONE", "Europe/London"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
