package repository

import (
	"context"
	"time"

	"vhc_backend/internal/healthchecks/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// InspectionReader provides read-only access to health checks.
type InspectionReader interface {
	GetInspection(ctx context.Context, orgID, id uuid.UUID) (domain.Inspection, error)
	ListBoardInspections(ctx context.Context, params BoardParams) ([]domain.Inspection, error)
}

// RepairItemReader loads the priced repair tree of a set of health checks.
type RepairItemReader interface {
	ListRepairItems(ctx context.Context, orgID uuid.UUID, healthCheckIDs []uuid.UUID) ([]domain.RepairItem, error)
}

// TimeEntryReader loads technician clock entries.
type TimeEntryReader interface {
	ListTimeEntries(ctx context.Context, orgID uuid.UUID, healthCheckIDs []uuid.UUID) ([]domain.TimeEntry, error)
}

// HistoryReader loads the status log of one health check.
type HistoryReader interface {
	ListStatusHistory(ctx context.Context, orgID, healthCheckID uuid.UUID) ([]domain.StatusHistoryEntry, error)
}

// KPIReader provides the cohort queries behind monthly KPIs.
type KPIReader interface {
	ListCohort(ctx context.Context, params CohortParams) ([]domain.Inspection, error)
	AdvisorNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// StatusWriter moves a health check to a new status and records the change.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, change StatusChange) (domain.Inspection, error)
}

// SLAReader provides the candidates scanned by the SLA sweep.
type SLAReader interface {
	ListOrganizationsWithOpenChecks(ctx context.Context) ([]uuid.UUID, error)
	ListSLACandidates(ctx context.Context, orgID uuid.UUID, excluded []string, horizon time.Time) ([]domain.Inspection, error)
}

// Store is the full storage surface used by the health check service.
type Store interface {
	InspectionReader
	RepairItemReader
	TimeEntryReader
	HistoryReader
	KPIReader
	StatusWriter
	SLAReader
}

// BoardParams filters the active board.
type BoardParams struct {
	OrganizationID uuid.UUID
	SiteID         *uuid.UUID
	TechnicianID   *uuid.UUID
	AdvisorID      *uuid.UUID
	// ExcludedStatuses are dropped in SQL; the domain re-checks activity.
	ExcludedStatuses []string
}

// CohortParams selects the inspections of one reporting window.
type CohortParams struct {
	OrganizationID uuid.UUID
	SiteID         *uuid.UUID
	From           time.Time
	To             time.Time
}

// StatusChange is a guarded status update.
type StatusChange struct {
	OrganizationID uuid.UUID
	HealthCheckID  uuid.UUID
	From           domain.Status
	To             domain.Status
	ChangedBy      *uuid.UUID
	Notes          string
	ChangedAt      time.Time
}
