package domain

import (
	"testing"
	"time"
)

func TestClassifierColumn(t *testing.T) {
	c := NewClassifier(nil)

	cases := []struct {
		status Status
		want   Column
	}{
		{StatusCreated, ColumnTechnician},
		{StatusPaused, ColumnTechnician},
		{StatusTechCompleted, ColumnTechDone},
		{StatusAwaitingParts, ColumnAdvisor},
		{StatusReadyToSend, ColumnAdvisor},
		{StatusOpened, ColumnCustomer},
		{StatusPartialResponse, ColumnCustomer},
		{StatusAuthorized, ColumnActioned},
		{StatusNoShow, ColumnActioned},
		{Status("something_new"), ColumnTechnician},
		{Status(""), ColumnTechnician},
	}

	for _, tc := range cases {
		if got := c.Column(tc.status); got != tc.want {
			t.Errorf("Column(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestClassifierTransitions(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Transitions(StatusAwaitingPricing)
	want := []Status{StatusAwaitingParts, StatusReadyToSend, StatusAwaitingReview}
	if len(got) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transition %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	got[0] = StatusCancelled
	if c.Transitions(StatusAwaitingPricing)[0] != StatusAwaitingParts {
		t.Fatalf("Transitions must return a copy")
	}

	if !c.CanTransition(StatusReadyToSend, StatusSent) {
		t.Fatalf("ready_to_send → sent should be allowed")
	}
	if c.CanTransition(StatusCreated, StatusSent) {
		t.Fatalf("created → sent should be rejected")
	}
	for _, terminal := range DefaultTerminalStatuses {
		if len(c.Transitions(terminal)) != 0 {
			t.Fatalf("terminal status %q should have no transitions", terminal)
		}
	}
}

func TestClassifierDropTarget(t *testing.T) {
	c := NewClassifier(nil)

	target, ok := c.DropTarget(StatusTechCompleted, ColumnAdvisor)
	if !ok || target != StatusAwaitingReview {
		t.Fatalf("expected awaiting_review, got %q ok=%v", target, ok)
	}

	target, ok = c.DropTarget(StatusOpened, ColumnCustomer)
	if !ok || target != StatusPartialResponse {
		t.Fatalf("expected partial_response, got %q ok=%v", target, ok)
	}

	if _, ok := c.DropTarget(StatusCreated, ColumnCustomer); ok {
		t.Fatalf("created cannot be dropped on the customer column")
	}
}

func TestClassifierCustomTerminalSet(t *testing.T) {
	c := NewClassifier([]Status{StatusCompleted})

	if c.IsTerminal(StatusNoShow) {
		t.Fatalf("no_show should not be terminal with a custom set")
	}
	if !c.CanTransition(StatusAuthorized, StatusCompleted) {
		t.Fatalf("authorized → completed should be allowed")
	}
	if got := c.TerminalStatuses(); len(got) != 1 || got[0] != StatusCompleted {
		t.Fatalf("unexpected terminal set %v", got)
	}
}

func TestClassifierIsActive(t *testing.T) {
	c := NewClassifier(nil)
	deleted := time.Now()

	cases := []struct {
		name string
		in   Inspection
		want bool
	}{
		{"in progress", Inspection{Status: StatusInProgress}, true},
		{"authorized stays active", Inspection{Status: StatusAuthorized}, true},
		{"completed", Inspection{Status: StatusCompleted}, false},
		{"no show", Inspection{Status: StatusNoShow}, false},
		{"awaiting arrival", Inspection{Status: StatusAwaitingArrival}, false},
		{"soft deleted", Inspection{Status: StatusCreated, DeletedAt: &deleted}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.IsActive(tc.in); got != tc.want {
				t.Fatalf("IsActive = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEveryTransitionTargetIsKnown(t *testing.T) {
	for from, targets := range transitions {
		if !from.IsKnown() {
			t.Fatalf("unknown source status %q", from)
		}
		for _, to := range targets {
			if !to.IsKnown() {
				t.Fatalf("unknown target %q from %q", to, from)
			}
		}
	}
}
