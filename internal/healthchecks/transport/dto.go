package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// BoardQuery filters the workflow board.
type BoardQuery struct {
	SiteID       string `form:"siteId" validate:"omitempty,uuid"`
	TechnicianID string `form:"technicianId" validate:"omitempty,uuid"`
	AdvisorID    string `form:"advisorId" validate:"omitempty,uuid"`
}

// KPIQuery filters the monthly KPIs.
type KPIQuery struct {
	SiteID string `form:"siteId" validate:"omitempty,uuid"`
}

// TransitionRequest moves a health check either to an explicit status or onto a board column.
type TransitionRequest struct {
	Status string `json:"status" validate:"required_without=Column,omitempty,hcstatus"`
	Column string `json:"column" validate:"required_without=Status,omitempty,oneof=technician tech_done advisor customer actioned"`
	Notes  string `json:"notes" validate:"max=500"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// WorkflowResponse is the derived stage progress of a card.
type WorkflowResponse struct {
	Technician string `json:"technician"`
	Labour     string `json:"labour"`
	Parts      string `json:"parts"`
	Authorised string `json:"authorised"`
	Sent       string `json:"sent"`
}

// SeverityCountsResponse counts items per RAG class.
type SeverityCountsResponse struct {
	Red   int `json:"red"`
	Amber int `json:"amber"`
	Green int `json:"green"`
}

// SeverityResponse splits RAG counts into identified and authorised.
type SeverityResponse struct {
	Identified SeverityCountsResponse `json:"identified"`
	Authorised SeverityCountsResponse `json:"authorised"`
}

// CardResponse is one health check on the board.
type CardResponse struct {
	ID                uuid.UUID        `json:"id"`
	VehicleReg        string           `json:"vehicleReg"`
	Status            string           `json:"status"`
	Column            string           `json:"column"`
	SiteID            *uuid.UUID       `json:"siteId,omitempty"`
	TechnicianID      *uuid.UUID       `json:"technicianId,omitempty"`
	AdvisorID         *uuid.UUID       `json:"advisorId,omitempty"`
	PromisedAt        *time.Time       `json:"promisedAt,omitempty"`
	TokenExpiresAt    *time.Time       `json:"tokenExpiresAt,omitempty"`
	SentAt            *time.Time       `json:"sentAt,omitempty"`
	DueDate           *time.Time       `json:"dueDate,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	Workflow          WorkflowResponse `json:"workflowStatus"`
	IsOverdue         bool             `json:"isOverdue"`
	IsExpiringSoon    bool             `json:"isExpiringSoon"`
	Alert             string           `json:"alert,omitempty"`
	IdentifiedTotal   float64          `json:"identifiedTotal"`
	AuthorisedTotal   float64          `json:"authorisedTotal"`
	DeclinedTotal     float64          `json:"declinedTotal"`
	Severity          SeverityResponse `json:"severity"`
	ItemCount         int              `json:"itemCount"`
	AuthorisedCount   int              `json:"authorisedCount"`
	ClockedMinutes    int              `json:"clockedMinutes"`
	ActiveTechnicians []uuid.UUID      `json:"activeTechnicians"`
}

// ColumnResponse is one board column.
type ColumnResponse struct {
	ID    string         `json:"id"`
	Count int            `json:"count"`
	Cards []CardResponse `json:"cards"`
}

// BoardSummaryResponse holds the counters above the board.
type BoardSummaryResponse struct {
	ActiveCount     int            `json:"activeCount"`
	ColumnCounts    map[string]int `json:"columnCounts"`
	OverdueCount    int            `json:"overdueCount"`
	ExpiringCount   int            `json:"expiringCount"`
	SentCount       int            `json:"sentCount"`
	ConvertedCount  int            `json:"convertedCount"`
	ConversionRate  float64        `json:"conversionRate"`
	IdentifiedTotal float64        `json:"identifiedTotal"`
	AuthorisedTotal float64        `json:"authorisedTotal"`
}

// BoardResponse is the full Kanban view.
type BoardResponse struct {
	Columns     []ColumnResponse     `json:"columns"`
	Summary     BoardSummaryResponse `json:"summary"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// TimelineEntryResponse is one step of the status history.
type TimelineEntryResponse struct {
	FromStatus      *string    `json:"fromStatus,omitempty"`
	ToStatus        string     `json:"toStatus"`
	ChangedAt       time.Time  `json:"changedAt"`
	ChangedBy       *uuid.UUID `json:"changedBy,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
	Duration        string     `json:"duration"`
	Synthetic       bool       `json:"synthetic,omitempty"`
}

// TimelineResponse is the status history with durations.
type TimelineResponse struct {
	HealthCheckID uuid.UUID               `json:"healthCheckId"`
	Entries       []TimelineEntryResponse `json:"entries"`
	TotalMinutes  int                     `json:"totalMinutes"`
	TotalDuration string                  `json:"totalDuration"`
}

// TransitionOption is a status the card may move to.
type TransitionOption struct {
	Status string `json:"status"`
	Column string `json:"column"`
}

// TransitionsResponse lists the legal moves from the current status.
type TransitionsResponse struct {
	HealthCheckID uuid.UUID          `json:"healthCheckId"`
	Status        string             `json:"status"`
	Column        string             `json:"column"`
	Allowed       []TransitionOption `json:"allowed"`
}

// AdvisorResponse is the top-ranked advisor of a period.
type AdvisorResponse struct {
	AdvisorID       uuid.UUID `json:"advisorId"`
	Name            string    `json:"name"`
	HCCount         int       `json:"hcCount"`
	RedSoldPct      *float64  `json:"redSoldPct"`
	AuthorisedTotal float64   `json:"authorisedTotal"`
	Score           float64   `json:"score"`
}

// PeriodKPIResponse holds one period's KPIs.
type PeriodKPIResponse struct {
	Period          string           `json:"period"`
	HCCount         int              `json:"hcCount"`
	CompletedCount  int              `json:"completedCount"`
	SentCount       int              `json:"sentCount"`
	ConversionRate  float64          `json:"conversionRate"`
	RedIdentified   int              `json:"redIdentified"`
	RedAuthorised   int              `json:"redAuthorised"`
	RedSoldPct      *float64         `json:"redSoldPct"`
	IdentifiedTotal float64          `json:"identifiedTotal"`
	AuthorisedTotal float64          `json:"authorisedTotal"`
	AvgIdentified   *float64         `json:"avgIdentified"`
	AvgSold         *float64         `json:"avgSold"`
	AvgPerDay       float64          `json:"avgPerDay"`
	DaysInPeriod    int              `json:"daysInPeriod"`
	TopAdvisor      *AdvisorResponse `json:"topAdvisor"`
}

// KPIDeltasResponse is current minus previous.
type KPIDeltasResponse struct {
	HCCount         int      `json:"hcCount"`
	CompletedCount  int      `json:"completedCount"`
	ConversionRate  *float64 `json:"conversionRate"`
	RedSoldPct      *float64 `json:"redSoldPct"`
	IdentifiedTotal *float64 `json:"identifiedTotal"`
	AuthorisedTotal *float64 `json:"authorisedTotal"`
	AvgIdentified   *float64 `json:"avgIdentified"`
	AvgSold         *float64 `json:"avgSold"`
	AvgPerDay       *float64 `json:"avgPerDay"`
}

// MonthlyKPIResponse compares the current month with the previous one.
type MonthlyKPIResponse struct {
	Current  PeriodKPIResponse `json:"current"`
	Previous PeriodKPIResponse `json:"previous"`
	Deltas   KPIDeltasResponse `json:"deltas"`
}
