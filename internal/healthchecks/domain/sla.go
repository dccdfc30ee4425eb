package domain

import "time"

// DefaultExpiryWindow is how far ahead a customer link counts as expiring.
const DefaultExpiryWindow = 24 * time.Hour

// Alert is the single SLA flag shown on a card.
type Alert string

const (
	AlertNone     Alert = ""
	AlertOverdue  Alert = "overdue"
	AlertExpiring Alert = "expiring"
)

// SLAInput carries the fields the evaluator needs.
type SLAInput struct {
	Terminal       bool
	PromisedAt     *time.Time
	TokenExpiresAt *time.Time
}

// SLAResult is the evaluated SLA state of an inspection.
type SLAResult struct {
	IsOverdue      bool  `json:"isOverdue"`
	IsExpiringSoon bool  `json:"isExpiringSoon"`
	Alert          Alert `json:"alert,omitempty"`
}

// EvaluateSLA flags promised-time overruns and customer links about to expire.
// Overdue wins when both apply. A non-positive window uses DefaultExpiryWindow.
func EvaluateSLA(in SLAInput, now time.Time, window time.Duration) SLAResult {
	if window <= 0 {
		window = DefaultExpiryWindow
	}

	var res SLAResult
	if !in.Terminal && in.PromisedAt != nil && in.PromisedAt.Before(now) {
		res.IsOverdue = true
	}
	if in.TokenExpiresAt != nil && in.TokenExpiresAt.After(now) && in.TokenExpiresAt.Before(now.Add(window)) {
		res.IsExpiringSoon = true
	}

	switch {
	case res.IsOverdue:
		res.Alert = AlertOverdue
	case res.IsExpiringSoon:
		res.Alert = AlertExpiring
	}
	return res
}
