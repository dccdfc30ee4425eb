package service

import (
	"context"
	"sync"
	"time"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/repository"
	"vhc_backend/platform/apperr"
	"vhc_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory repository.Store for service tests.
type fakeStore struct {
	mu          sync.Mutex
	inspections map[uuid.UUID]domain.Inspection
	items       []domain.RepairItem
	entries     []domain.TimeEntry
	history     []domain.StatusHistoryEntry
	names       map[uuid.UUID]string
	cohortCalls int
	failWith    error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		inspections: make(map[uuid.UUID]domain.Inspection),
		names:       make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) add(in domain.Inspection) domain.Inspection {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	f.inspections[in.ID] = in
	return in
}

func (f *fakeStore) GetInspection(_ context.Context, orgID, id uuid.UUID) (domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return domain.Inspection{}, f.failWith
	}
	in, ok := f.inspections[id]
	if !ok || in.OrganizationID != orgID || in.DeletedAt != nil {
		return domain.Inspection{}, apperr.NotFound("health check not found")
	}
	return in, nil
}

func (f *fakeStore) ListBoardInspections(_ context.Context, p repository.BoardParams) ([]domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	excluded := make(map[string]bool)
	for _, s := range p.ExcludedStatuses {
		excluded[s] = true
	}
	out := make([]domain.Inspection, 0)
	for _, in := range f.inspections {
		if in.OrganizationID != p.OrganizationID || in.DeletedAt != nil || excluded[string(in.Status)] {
			continue
		}
		if p.SiteID != nil && (in.SiteID == nil || *in.SiteID != *p.SiteID) {
			continue
		}
		if p.TechnicianID != nil && (in.TechnicianID == nil || *in.TechnicianID != *p.TechnicianID) {
			continue
		}
		if p.AdvisorID != nil && (in.AdvisorID == nil || *in.AdvisorID != *p.AdvisorID) {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (f *fakeStore) ListRepairItems(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]domain.RepairItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]domain.RepairItem, 0)
	for _, it := range f.items {
		if want[it.HealthCheckID] {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTimeEntries(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]domain.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]domain.TimeEntry, 0)
	for _, e := range f.entries {
		if want[e.HealthCheckID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListStatusHistory(_ context.Context, _, id uuid.UUID) ([]domain.StatusHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.StatusHistoryEntry, 0)
	for _, h := range f.history {
		if h.HealthCheckID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCohort(_ context.Context, p repository.CohortParams) ([]domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cohortCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]domain.Inspection, 0)
	for _, in := range f.inspections {
		if in.OrganizationID != p.OrganizationID || in.DeletedAt != nil {
			continue
		}
		if p.SiteID != nil && (in.SiteID == nil || *in.SiteID != *p.SiteID) {
			continue
		}
		d := in.CohortDate()
		if d.Before(p.From) || d.After(p.To) {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (f *fakeStore) AdvisorNames(_ context.Context, _ uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, c repository.StatusChange) (domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return domain.Inspection{}, f.failWith
	}
	in, ok := f.inspections[c.HealthCheckID]
	if !ok || in.OrganizationID != c.OrganizationID {
		return domain.Inspection{}, apperr.NotFound("health check not found")
	}
	if in.Status != c.From {
		return domain.Inspection{}, apperr.Conflict("health check status changed concurrently")
	}
	in.Status = c.To
	in.UpdatedAt = c.ChangedAt
	if c.To == domain.StatusSent && in.SentAt == nil {
		at := c.ChangedAt
		in.SentAt = &at
	}
	f.inspections[in.ID] = in

	from := c.From
	f.history = append(f.history, domain.StatusHistoryEntry{
		HealthCheckID: in.ID,
		FromStatus:    &from,
		ToStatus:      c.To,
		ChangedAt:     c.ChangedAt,
		ChangedBy:     c.ChangedBy,
	})
	return in, nil
}

func (f *fakeStore) ListOrganizationsWithOpenChecks(_ context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	out := make([]uuid.UUID, 0)
	for _, in := range f.inspections {
		if !seen[in.OrganizationID] {
			seen[in.OrganizationID] = true
			out = append(out, in.OrganizationID)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSLACandidates(_ context.Context, orgID uuid.UUID, excluded []string, horizon time.Time) ([]domain.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	skip := make(map[string]bool)
	for _, s := range excluded {
		skip[s] = true
	}
	out := make([]domain.Inspection, 0)
	for _, in := range f.inspections {
		if in.OrganizationID != orgID || in.DeletedAt != nil || skip[string(in.Status)] {
			continue
		}
		promised := in.PromisedAt != nil && in.PromisedAt.Before(horizon)
		expiring := in.TokenExpiresAt != nil && in.TokenExpiresAt.Before(horizon)
		if promised || expiring {
			out = append(out, in)
		}
	}
	return out, nil
}

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore) *Service {
	svc := New(store, Settings{KPICacheTTL: time.Minute}, nil, logger.New("test"))
	svc.now = func() time.Time { return testNow }
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func timePtr(t time.Time) *time.Time { return &t }

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
