package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vhc_backend/internal/healthchecks/transport"
	"vhc_backend/platform/apperr"
	"vhc_backend/platform/httpkit"
	"vhc_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubService struct {
	lastReq    transport.TransitionRequest
	lastActor  uuid.UUID
	lastTenant uuid.UUID
	err        error
}

func (s *stubService) Board(_ context.Context, tenantID uuid.UUID, _ transport.BoardQuery) (transport.BoardResponse, error) {
	s.lastTenant = tenantID
	return transport.BoardResponse{Columns: []transport.ColumnResponse{{ID: "technician", Cards: []transport.CardResponse{}}}}, s.err
}

func (s *stubService) Workflow(_ context.Context, _, id uuid.UUID) (transport.CardResponse, error) {
	return transport.CardResponse{ID: id}, s.err
}

func (s *stubService) Timeline(_ context.Context, _, id uuid.UUID) (transport.TimelineResponse, error) {
	return transport.TimelineResponse{HealthCheckID: id}, s.err
}

func (s *stubService) Transitions(_ context.Context, _, id uuid.UUID) (transport.TransitionsResponse, error) {
	return transport.TransitionsResponse{HealthCheckID: id}, s.err
}

func (s *stubService) Transition(_ context.Context, tenantID, actorID, id uuid.UUID, req transport.TransitionRequest) (transport.CardResponse, error) {
	s.lastTenant, s.lastActor, s.lastReq = tenantID, actorID, req
	return transport.CardResponse{ID: id, Status: req.Status}, s.err
}

func (s *stubService) MonthlyKPIs(_ context.Context, _ uuid.UUID, _ transport.KPIQuery) (transport.MonthlyKPIResponse, error) {
	return transport.MonthlyKPIResponse{}, s.err
}

func newTestRouter(t *testing.T, svc Service, userID uuid.UUID, tenantID *uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h, err := New(svc, validator.New())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	r := gin.New()
	group := r.Group("/health-checks", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		if tenantID != nil {
			c.Set(httpkit.ContextTenantIDKey, *tenantID)
		}
		c.Next()
	})
	h.RegisterRoutes(group)
	return r
}

func TestGetBoardUsesCallerTenant(t *testing.T) {
	svc := &stubService{}
	tenant := uuid.New()
	r := newTestRouter(t, svc, uuid.New(), &tenant)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-checks/board", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastTenant != tenant {
		t.Fatalf("expected tenant %s, got %s", tenant, svc.lastTenant)
	}
}

func TestGetBoardRejectsMalformedFilter(t *testing.T) {
	tenant := uuid.New()
	r := newTestRouter(t, &stubService{}, uuid.New(), &tenant)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-checks/board?siteId=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetBoardRequiresTenant(t *testing.T) {
	r := newTestRouter(t, &stubService{}, uuid.New(), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-checks/board", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransitionPassesActorAndRequest(t *testing.T) {
	svc := &stubService{}
	tenant, user, id := uuid.New(), uuid.New(), uuid.New()
	r := newTestRouter(t, svc, user, &tenant)

	body := strings.NewReader(`{"status":"sent","notes":"customer called"}`)
	req := httptest.NewRequest(http.MethodPatch, "/health-checks/"+id.String()+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastActor != user || svc.lastReq.Status != "sent" || svc.lastReq.Notes != "customer called" {
		t.Fatalf("unexpected call actor=%s req=%+v", svc.lastActor, svc.lastReq)
	}
}

func TestTransitionValidatesBody(t *testing.T) {
	tenant := uuid.New()
	r := newTestRouter(t, &stubService{}, uuid.New(), &tenant)
	path := "/health-checks/" + uuid.NewString() + "/status"

	cases := map[string]string{
		"empty":          `{}`,
		"unknown status": `{"status":"archived"}`,
		"unknown column": `{"column":"backlog"}`,
	}
	for name, raw := range cases {
		req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	tenant := uuid.New()
	svc := &stubService{err: apperr.Unavailable("storage unavailable", context.DeadlineExceeded)}
	r := newTestRouter(t, svc, uuid.New(), &tenant)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-checks/"+uuid.NewString()+"/workflow", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body httpkit.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Retryable {
		t.Fatal("expected retryable error body")
	}
}

func TestInvalidIDIsRejected(t *testing.T) {
	tenant := uuid.New()
	r := newTestRouter(t, &stubService{}, uuid.New(), &tenant)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-checks/nope/timeline", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
