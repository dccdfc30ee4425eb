package exports

import (
	"time"

	apphttp "vhc_backend/internal/http"
	"vhc_backend/platform/logger"
	"vhc_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module.
func NewModule(pool *pgxpool.Pool, src Source, val *validator.Validator, log *logger.Logger, loc *time.Location) *Module {
	return &Module{
		handler: NewHandler(src, NewRepository(pool), val, log, loc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/exports/health-checks"))
}

var _ apphttp.Module = (*Module)(nil)
