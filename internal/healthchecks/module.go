// Package healthchecks provides the workflow board, timeline and KPI module.
package healthchecks

import (
	"vhc_backend/internal/events"
	"vhc_backend/internal/healthchecks/handler"
	"vhc_backend/internal/healthchecks/repository"
	"vhc_backend/internal/healthchecks/service"
	apphttp "vhc_backend/internal/http"
	"vhc_backend/platform/logger"
	"vhc_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the health checks domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new health checks module with all dependencies wired.
// cache may be nil, in which case KPIs are computed on every request.
func NewModule(pool *pgxpool.Pool, settings service.Settings, eventBus events.Bus, cache service.KPICache, val *validator.Validator, log *logger.Logger) (*Module, error) {
	svc := service.New(repository.New(pool), settings, eventBus, log)
	if cache != nil {
		svc.SetCache(cache)
		eventBus.Subscribe(events.HealthCheckStatusChanged{}.EventName(), svc.InvalidateKPIs())
	}

	h, err := handler.New(svc, val)
	if err != nil {
		return nil, err
	}

	return &Module{handler: h, service: svc}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "healthchecks"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/health-checks"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
