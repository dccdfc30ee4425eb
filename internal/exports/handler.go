package exports

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/service"
	"vhc_backend/internal/healthchecks/transport"
	"vhc_backend/platform/httpkit"
	"vhc_backend/platform/logger"
	"vhc_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType    = "text/csv"
	defaultListLimit  = 20
	maxListLimit      = 100
	msgInvalidRequest = "invalid request"
	msgExportFailed   = "export failed"
)

// Source provides the board and KPI figures to export.
type Source interface {
	Snapshot(ctx context.Context, tenantID uuid.UUID, filter service.BoardFilter) (domain.Board, error)
	ComputeKPIs(ctx context.Context, tenantID uuid.UUID, siteID *uuid.UUID) (domain.MonthlyKPIs, error)
}

// Log records and lists exports.
type Log interface {
	RecordExport(ctx context.Context, rec ExportRecord) error
	ListExports(ctx context.Context, orgID uuid.UUID, limit int) ([]ExportRecord, error)
}

// Handler serves spreadsheet exports of the board and KPIs.
type Handler struct {
	src Source
	log Log
	val *validator.Validator
	lg  *logger.Logger
	loc *time.Location
	now func() time.Time
}

// NewHandler creates a new export handler.
func NewHandler(src Source, exportLog Log, val *validator.Validator, lg *logger.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{src: src, log: exportLog, val: val, lg: lg, loc: loc, now: time.Now}
}

// RegisterRoutes registers the export routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/board.xlsx", h.ExportBoardXLSX)
	rg.GET("/board.csv", h.ExportBoardCSV)
	rg.GET("/kpis.xlsx", h.ExportKPIsXLSX)
	rg.GET("/history", httpkit.RequireRole("admin"), h.ListHistory)
}

func (h *Handler) ExportBoardXLSX(c *gin.Context) {
	h.exportBoard(c, KindBoardXLSX, xlsxContentType, WriteBoardWorkbook)
}

func (h *Handler) ExportBoardCSV(c *gin.Context) {
	h.exportBoard(c, KindBoardCSV, csvContentType, WriteBoardCSV)
}

type boardWriter func(w io.Writer, board domain.Board, loc *time.Location) (int, error)

func (h *Handler) exportBoard(c *gin.Context, kind, contentType string, write boardWriter) {
	var q transport.BoardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, validator.Details(err))
		return
	}
	filter, err := service.ParseBoardQuery(q)
	if httpkit.HandleError(c, err) {
		return
	}

	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	board, err := h.src.Snapshot(c.Request.Context(), tenantID, filter)
	if httpkit.HandleError(c, err) {
		return
	}

	var buf bytes.Buffer
	rows, err := write(&buf, board, h.loc)
	if err != nil {
		h.lg.WithContext(c.Request.Context()).Error("board export failed", "kind", kind, "error", err)
		httpkit.Error(c, http.StatusInternalServerError, msgExportFailed, nil)
		return
	}

	h.record(c, tenantID, kind, rows)
	h.send(c, kind, contentType, buf.Bytes())
}

func (h *Handler) ExportKPIsXLSX(c *gin.Context) {
	var q transport.KPIQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, validator.Details(err))
		return
	}

	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	siteID, err := service.ParseKPIQuery(q)
	if httpkit.HandleError(c, err) {
		return
	}

	kpis, err := h.src.ComputeKPIs(c.Request.Context(), tenantID, siteID)
	if httpkit.HandleError(c, err) {
		return
	}

	var buf bytes.Buffer
	if err := WriteKPIWorkbook(&buf, kpis); err != nil {
		h.lg.WithContext(c.Request.Context()).Error("kpi export failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, msgExportFailed, nil)
		return
	}

	h.record(c, tenantID, KindKPIXLSX, 2)
	h.send(c, KindKPIXLSX, xlsxContentType, buf.Bytes())
}

func (h *Handler) ListHistory(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	items, err := h.log.ListExports(c.Request.Context(), tenantID, parseLimit(c.Query("limit"), defaultListLimit, maxListLimit))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": items})
}

// record logs a failed audit write but never fails the download.
func (h *Handler) record(c *gin.Context, tenantID uuid.UUID, kind string, rows int) {
	if h.log == nil {
		return
	}
	rec := ExportRecord{
		OrganizationID: tenantID,
		Kind:           kind,
		RowCount:       rows,
		CreatedAt:      h.now(),
	}
	if identity := httpkit.GetIdentity(c); identity.IsAuthenticated() {
		userID := identity.UserID()
		rec.ExportedBy = &userID
	}
	if err := h.log.RecordExport(c.Request.Context(), rec); err != nil {
		h.lg.WithContext(c.Request.Context()).Warn("export log write failed", "kind", kind, "error", err)
	}
}

func (h *Handler) send(c *gin.Context, kind, contentType string, body []byte) {
	filename := "health-checks-" + h.now().In(h.loc).Format("2006-01-02") + "-" + kind
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, body)
}

func parseLimit(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
