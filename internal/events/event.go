// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"vhc_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Health Check Domain Events
// =============================================================================

// HealthCheckStatusChanged is published after a status move has been committed.
type HealthCheckStatusChanged struct {
	BaseEvent
	HealthCheckID  uuid.UUID  `json:"healthCheckId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	FromStatus     string     `json:"fromStatus"`
	ToStatus       string     `json:"toStatus"`
	ChangedBy      *uuid.UUID `json:"changedBy,omitempty"`
	Source         string     `json:"source"`
}

func (e HealthCheckStatusChanged) EventName() string { return "healthchecks.status.changed" }

// SLAAlertRaised is published by the sweep for each overdue or expiring health check.
type SLAAlertRaised struct {
	BaseEvent
	HealthCheckID  uuid.UUID `json:"healthCheckId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Alert          string    `json:"alert"`
	Deadline       time.Time `json:"deadline"`
}

func (e SLAAlertRaised) EventName() string { return "healthchecks.sla.alert_raised" }
