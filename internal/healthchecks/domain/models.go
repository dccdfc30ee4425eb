package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inspection is a single vehicle health check.
type Inspection struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	SiteID          *uuid.UUID
	TechnicianID    *uuid.UUID
	AdvisorID       *uuid.UUID
	VehicleReg      string
	Status          Status
	PromisedAt      *time.Time
	TokenExpiresAt  *time.Time
	SentAt          *time.Time
	TechStartedAt   *time.Time
	TechCompletedAt *time.Time
	DueDate         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// CohortDate is the date that places an inspection in a reporting month.
func (in Inspection) CohortDate() time.Time {
	if in.DueDate != nil {
		return *in.DueDate
	}
	return in.CreatedAt
}

// Stage progress values for labour and parts on a repair item.
const (
	ProgressPending    = "pending"
	ProgressInProgress = "in_progress"
	ProgressComplete   = "complete"
)

// Customer outcome values on a repair item.
const (
	OutcomeAuthorised = "authorised"
	OutcomeDeclined   = "declined"
	OutcomeDeleted    = "deleted"
)

// RepairOption is an alternative price for a repair item.
type RepairOption struct {
	ID          uuid.UUID
	LabourTotal decimal.Decimal
	PartsTotal  decimal.Decimal
	TotalIncVat decimal.Decimal
}

// RepairItem is a priced line of work. Items form a shallow tree through ParentID.
type RepairItem struct {
	ID               uuid.UUID
	HealthCheckID    uuid.UUID
	ParentID         *uuid.UUID
	IsGroup          bool
	SelectedOption   *RepairOption
	LabourTotal      decimal.Decimal
	PartsTotal       decimal.Decimal
	TotalIncVat      decimal.Decimal
	LabourStatus     string
	PartsStatus      string
	OutcomeStatus    string
	CustomerApproved *bool
	DeletedAt        *time.Time
	RAGs             []RAG
}

// IsAuthorised is the single authorization predicate used across the board and KPIs.
func (it RepairItem) IsAuthorised() bool {
	return it.OutcomeStatus == OutcomeAuthorised || (it.CustomerApproved != nil && *it.CustomerApproved)
}

// IsDeclined reports an explicit customer decline that was not overridden by approval.
func (it RepairItem) IsDeclined() bool {
	if it.IsAuthorised() {
		return false
	}
	return it.OutcomeStatus == OutcomeDeclined || (it.CustomerApproved != nil && !*it.CustomerApproved)
}

// TimeEntry is a technician clock-in against an inspection.
type TimeEntry struct {
	HealthCheckID   uuid.UUID
	TechnicianID    uuid.UUID
	ClockInAt       time.Time
	ClockOutAt      *time.Time
	DurationMinutes int
}

// StatusHistoryEntry is one row of the append-only status log.
type StatusHistoryEntry struct {
	HealthCheckID uuid.UUID
	FromStatus    *Status
	ToStatus      Status
	ChangedAt     time.Time
	ChangedBy     *uuid.UUID
}
