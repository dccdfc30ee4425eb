package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TimelineEntry is one step of an inspection's status history.
type TimelineEntry struct {
	FromStatus      *Status    `json:"fromStatus,omitempty"`
	ToStatus        Status     `json:"toStatus"`
	ChangedAt       time.Time  `json:"changedAt"`
	ChangedBy       *uuid.UUID `json:"changedBy,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
	Duration        string     `json:"duration"`
	Synthetic       bool       `json:"synthetic,omitempty"`
}

// Timeline is the ordered history of an inspection with elapsed durations.
type Timeline struct {
	Entries       []TimelineEntry `json:"entries"`
	TotalMinutes  int             `json:"totalMinutes"`
	TotalDuration string          `json:"totalDuration"`
}

// BuildTimeline turns a status log into per-step durations.
// A synthetic "created" step anchored at createdAt leads any non-empty history.
func BuildTimeline(createdAt time.Time, history []StatusHistoryEntry) Timeline {
	sorted := append([]StatusHistoryEntry(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChangedAt.Before(sorted[j].ChangedAt)
	})

	tl := Timeline{Entries: make([]TimelineEntry, 0, len(sorted)+1)}
	if len(sorted) == 0 {
		tl.TotalDuration = FormatDuration(0)
		return tl
	}

	tl.Entries = append(tl.Entries, TimelineEntry{
		ToStatus:  StatusCreated,
		ChangedAt: createdAt,
		Duration:  FormatDuration(0),
		Synthetic: true,
	})

	prev := createdAt
	for _, h := range sorted {
		minutes := roundMinutes(h.ChangedAt.Sub(prev))
		tl.Entries = append(tl.Entries, TimelineEntry{
			FromStatus:      h.FromStatus,
			ToStatus:        h.ToStatus,
			ChangedAt:       h.ChangedAt,
			ChangedBy:       h.ChangedBy,
			DurationMinutes: minutes,
			Duration:        FormatDuration(minutes),
		})
		prev = h.ChangedAt
	}

	if len(sorted) >= 2 {
		tl.TotalMinutes = roundMinutes(sorted[len(sorted)-1].ChangedAt.Sub(sorted[0].ChangedAt))
	}
	tl.TotalDuration = FormatDuration(tl.TotalMinutes)
	return tl
}

func roundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Minutes()))
}

// FormatDuration renders minutes as "Nm", "Hh Mm" or "Dd Hh", omitting a zero sub-unit.
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		if rem := minutes % 60; rem > 0 {
			return fmt.Sprintf("%dh %dm", hours, rem)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	if rem := hours % 24; rem > 0 {
		return fmt.Sprintf("%dd %dh", days, rem)
	}
	return fmt.Sprintf("%dd", days)
}
