package handler

import (
	"context"
	"net/http"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/transport"
	"vhc_backend/platform/httpkit"
	"vhc_backend/platform/validator"

	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Service is the use-case surface the handler calls.
type Service interface {
	Board(ctx context.Context, tenantID uuid.UUID, q transport.BoardQuery) (transport.BoardResponse, error)
	Workflow(ctx context.Context, tenantID, id uuid.UUID) (transport.CardResponse, error)
	Timeline(ctx context.Context, tenantID, id uuid.UUID) (transport.TimelineResponse, error)
	Transitions(ctx context.Context, tenantID, id uuid.UUID) (transport.TransitionsResponse, error)
	Transition(ctx context.Context, tenantID, actorID, id uuid.UUID, req transport.TransitionRequest) (transport.CardResponse, error)
	MonthlyKPIs(ctx context.Context, tenantID uuid.UUID, q transport.KPIQuery) (transport.MonthlyKPIResponse, error)
}

// Handler handles HTTP requests for the health check board.
type Handler struct {
	svc Service
	val *validator.Validator
}

// New creates a new health check handler and registers its validation tags.
func New(svc Service, val *validator.Validator) (*Handler, error) {
	if err := RegisterValidations(val); err != nil {
		return nil, err
	}
	return &Handler{svc: svc, val: val}, nil
}

// RegisterValidations adds the "hcstatus" tag for known health check statuses.
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation("hcstatus", func(fl playground.FieldLevel) bool {
		return domain.Status(fl.Field().String()).IsKnown()
	})
}

// RegisterRoutes registers the health check routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/board", h.GetBoard)
	rg.GET("/kpis/monthly", h.GetKPIs)
	rg.GET("/:id/workflow", h.GetWorkflow)
	rg.GET("/:id/timeline", h.GetTimeline)
	rg.GET("/:id/transitions", h.ListTransitions)
	rg.PATCH("/:id/status", h.Transition)
}

func (h *Handler) GetBoard(c *gin.Context) {
	var q transport.BoardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return
	}

	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Board(c.Request.Context(), tenantID, q)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetKPIs(c *gin.Context) {
	var q transport.KPIQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return
	}

	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.MonthlyKPIs(c.Request.Context(), tenantID, q)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetWorkflow(c *gin.Context) {
	id, tenantID, ok := h.checkScope(c)
	if !ok {
		return
	}

	result, err := h.svc.Workflow(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetTimeline(c *gin.Context) {
	id, tenantID, ok := h.checkScope(c)
	if !ok {
		return
	}

	result, err := h.svc.Timeline(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ListTransitions(c *gin.Context) {
	id, tenantID, ok := h.checkScope(c)
	if !ok {
		return
	}

	result, err := h.svc.Transitions(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return
	}

	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.Transition(c.Request.Context(), tenantID, identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) checkScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return id, tenantID, true
}
