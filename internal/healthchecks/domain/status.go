// Package domain provides the core workflow rules for the health check bounded context.
// Everything in this package is pure: no I/O, no clocks, no shared state.
package domain

// Status is the lifecycle status of a health check.
type Status string

const (
	StatusAwaitingArrival Status = "awaiting_arrival"
	StatusCreated         Status = "created"
	StatusAssigned        Status = "assigned"
	StatusInProgress      Status = "in_progress"
	StatusPaused          Status = "paused"
	StatusTechCompleted   Status = "tech_completed"
	StatusAwaitingReview  Status = "awaiting_review"
	StatusAwaitingPricing Status = "awaiting_pricing"
	StatusAwaitingParts   Status = "awaiting_parts"
	StatusReadyToSend     Status = "ready_to_send"
	StatusSent            Status = "sent"
	StatusDelivered       Status = "delivered"
	StatusOpened          Status = "opened"
	StatusPartialResponse Status = "partial_response"
	StatusAuthorized      Status = "authorized"
	StatusDeclined        Status = "declined"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusExpired         Status = "expired"
	StatusNoShow          Status = "no_show"
)

// AllStatuses lists every known status in workflow order.
var AllStatuses = []Status{
	StatusAwaitingArrival, StatusCreated, StatusAssigned, StatusInProgress, StatusPaused,
	StatusTechCompleted, StatusAwaitingReview, StatusAwaitingPricing, StatusAwaitingParts,
	StatusReadyToSend, StatusSent, StatusDelivered, StatusOpened, StatusPartialResponse,
	StatusAuthorized, StatusDeclined, StatusCompleted, StatusCancelled, StatusExpired, StatusNoShow,
}

// IsKnown reports whether s is one of AllStatuses.
func (s Status) IsKnown() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Column is a Kanban bucket on the workflow board.
type Column string

const (
	ColumnTechnician Column = "technician"
	ColumnTechDone   Column = "tech_done"
	ColumnAdvisor    Column = "advisor"
	ColumnCustomer   Column = "customer"
	ColumnActioned   Column = "actioned"
)

// Columns lists the board columns left to right.
var Columns = []Column{ColumnTechnician, ColumnTechDone, ColumnAdvisor, ColumnCustomer, ColumnActioned}

// IsKnown reports whether c is one of Columns.
func (c Column) IsKnown() bool {
	for _, known := range Columns {
		if c == known {
			return true
		}
	}
	return false
}

var columnGroups = map[Column][]Status{
	ColumnTechnician: {StatusCreated, StatusAssigned, StatusInProgress, StatusPaused},
	ColumnTechDone:   {StatusTechCompleted},
	ColumnAdvisor:    {StatusAwaitingReview, StatusAwaitingPricing, StatusAwaitingParts, StatusReadyToSend},
	ColumnCustomer:   {StatusSent, StatusDelivered, StatusOpened, StatusPartialResponse},
	ColumnActioned:   {StatusAuthorized, StatusDeclined, StatusCompleted, StatusCancelled, StatusExpired, StatusNoShow},
}

var columnByStatus = func() map[Status]Column {
	index := make(map[Status]Column)
	for column, statuses := range columnGroups {
		for _, s := range statuses {
			index[s] = column
		}
	}
	return index
}()

// transitions is the drag-drop state machine. Order matters: the first
// reachable status of a column is the drop target for that column.
var transitions = map[Status][]Status{
	StatusAwaitingArrival: {StatusCreated, StatusNoShow, StatusCancelled},
	StatusCreated:         {StatusAssigned, StatusInProgress, StatusCancelled},
	StatusAssigned:        {StatusInProgress, StatusCreated, StatusCancelled},
	StatusInProgress:      {StatusPaused, StatusTechCompleted},
	StatusPaused:          {StatusInProgress, StatusTechCompleted},
	StatusTechCompleted:   {StatusAwaitingReview, StatusAwaitingPricing},
	StatusAwaitingReview:  {StatusAwaitingPricing, StatusReadyToSend},
	StatusAwaitingPricing: {StatusAwaitingParts, StatusReadyToSend, StatusAwaitingReview},
	StatusAwaitingParts:   {StatusAwaitingPricing, StatusReadyToSend},
	StatusReadyToSend:     {StatusSent},
	StatusSent:            {StatusAuthorized, StatusDeclined, StatusExpired},
	StatusDelivered:       {StatusAuthorized, StatusDeclined, StatusExpired},
	StatusOpened:          {StatusPartialResponse, StatusAuthorized, StatusDeclined, StatusExpired},
	StatusPartialResponse: {StatusAuthorized, StatusDeclined},
	StatusAuthorized:      {StatusCompleted},
	StatusDeclined:        {StatusCompleted},
}

// DefaultTerminalStatuses are excluded from active counts unless configured otherwise.
var DefaultTerminalStatuses = []Status{StatusCompleted, StatusCancelled, StatusExpired, StatusNoShow}

// Classifier maps statuses to columns and decides which moves are legal.
// The zero value is not usable; build one with NewClassifier.
type Classifier struct {
	terminal map[Status]bool
}

// NewClassifier builds a classifier with the given terminal set.
// An empty set falls back to DefaultTerminalStatuses.
func NewClassifier(terminal []Status) Classifier {
	if len(terminal) == 0 {
		terminal = DefaultTerminalStatuses
	}
	set := make(map[Status]bool, len(terminal))
	for _, s := range terminal {
		set[s] = true
	}
	return Classifier{terminal: set}
}

// TerminalStatuses returns the configured terminal set in workflow order.
func (c Classifier) TerminalStatuses() []Status {
	out := make([]Status, 0, len(c.terminal))
	for _, s := range AllStatuses {
		if c.terminal[s] {
			out = append(out, s)
		}
	}
	return out
}

// Column returns the board column for status. Unmapped statuses land in technician.
func (c Classifier) Column(status Status) Column {
	if column, ok := columnByStatus[status]; ok {
		return column
	}
	return ColumnTechnician
}

// Transitions returns the statuses reachable from status by one move.
func (c Classifier) Transitions(status Status) []Status {
	if c.IsTerminal(status) {
		return nil
	}
	return append([]Status(nil), transitions[status]...)
}

// CanTransition reports whether from → to is a legal move.
func (c Classifier) CanTransition(from, to Status) bool {
	for _, s := range c.Transitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// DropTarget resolves a card dropped on column to the first reachable status in it.
func (c Classifier) DropTarget(from Status, column Column) (Status, bool) {
	for _, s := range c.Transitions(from) {
		if c.Column(s) == column {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether status is in the configured terminal set.
func (c Classifier) IsTerminal(status Status) bool {
	return c.terminal[status]
}

// IsActive reports whether an inspection belongs on the active board.
func (c Classifier) IsActive(in Inspection) bool {
	if in.DeletedAt != nil {
		return false
	}
	if in.Status == StatusAwaitingArrival {
		return false
	}
	return !c.IsTerminal(in.Status)
}
