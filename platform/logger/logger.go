// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// OrganizationIDKey is the context key for the tenant (organization) ID
	OrganizationIDKey contextKey = "organization_id"
)

// Logger is slog with helpers for the events this service emits.
type Logger struct {
	*slog.Logger
}

// New creates a logger for env: text at debug level in development, discarded in
// test, JSON at info level otherwise.
func New(env string) *Logger {
	if strings.EqualFold(env, "test") {
		return NewWithWriter(env, io.Discard)
	}
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// WithContext returns a logger carrying the request and organization ids found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	attrs := make([]any, 0, 2)
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if orgID, ok := ctx.Value(OrganizationIDKey).(string); ok && orgID != "" {
		attrs = append(attrs, slog.String("organization_id", orgID))
	}
	if len(attrs) == 0 {
		return l
	}

	return &Logger{Logger: l.With(attrs...)}
}

// HTTPRequest logs a served request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs a request that ended with a recorded gin error.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs a failed storage operation outside a request.
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// StatusTransition logs a health check moving between workflow statuses.
func (l *Logger) StatusTransition(healthCheckID, from, to, actor string) {
	l.Info("status_transition",
		slog.String("health_check_id", healthCheckID),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("actor", actor),
	)
}

// SLAAlert logs an overdue or expiring health check found by the sweep.
func (l *Logger) SLAAlert(healthCheckID, alert string, deadline time.Time) {
	l.Warn("sla_alert",
		slog.String("health_check_id", healthCheckID),
		slog.String("alert", alert),
		slog.Time("deadline", deadline),
	)
}

// RateLimitExceeded logs a throttled client.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
