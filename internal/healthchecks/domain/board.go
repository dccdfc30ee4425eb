package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Card is an inspection annotated with everything the board shows for it.
type Card struct {
	Inspection        Inspection
	Column            Column
	Workflow          WorkflowStatus
	SLA               SLAResult
	IdentifiedTotal   decimal.Decimal
	AuthorisedTotal   decimal.Decimal
	DeclinedTotal     decimal.Decimal
	Severity          Severity
	ItemCount         int
	AuthorisedCount   int
	ClockedMinutes    int
	ActiveTechnicians []uuid.UUID
}

// BoardColumn is one column with its cards.
type BoardColumn struct {
	Column Column
	Cards  []Card
}

// BoardSummary holds the counters shown above the board.
type BoardSummary struct {
	ActiveCount     int
	ColumnCounts    map[Column]int
	OverdueCount    int
	ExpiringCount   int
	SentCount       int
	ConvertedCount  int
	ConversionRate  decimal.Decimal
	IdentifiedTotal decimal.Decimal
	AuthorisedTotal decimal.Decimal
}

// Board is the full Kanban view.
type Board struct {
	Columns []BoardColumn
	Summary BoardSummary
}

// BoardInput is the point-in-time snapshot a board is built from.
type BoardInput struct {
	Inspections  []Inspection
	Rollups      Rollups
	TimeEntries  []TimeEntry
	Now          time.Time
	ExpiryWindow time.Duration
}

// BuildCard annotates a single inspection.
func BuildCard(c Classifier, in Inspection, r Rollup, entries []TimeEntry, now time.Time, window time.Duration) Card {
	clocked, active := clockSummary(entries, now)
	return Card{
		Inspection: in,
		Column:     c.Column(in.Status),
		Workflow:   DeriveWorkflow(r, TimestampsOf(in)),
		SLA: EvaluateSLA(SLAInput{
			Terminal:       c.IsTerminal(in.Status),
			PromisedAt:     in.PromisedAt,
			TokenExpiresAt: in.TokenExpiresAt,
		}, now, window),
		IdentifiedTotal:   RoundCurrency(r.IdentifiedTotal),
		AuthorisedTotal:   RoundCurrency(r.AuthorisedTotal),
		DeclinedTotal:     RoundCurrency(r.DeclinedTotal),
		Severity:          r.Severity,
		ItemCount:         r.ItemCount,
		AuthorisedCount:   r.AuthorisedCount,
		ClockedMinutes:    clocked,
		ActiveTechnicians: active,
	}
}

// BuildBoard buckets the active inspections into columns and totals them.
// Inactive inspections in the input are ignored.
func BuildBoard(c Classifier, in BoardInput) Board {
	entriesByCheck := make(map[uuid.UUID][]TimeEntry)
	for _, e := range in.TimeEntries {
		entriesByCheck[e.HealthCheckID] = append(entriesByCheck[e.HealthCheckID], e)
	}

	buckets := make(map[Column][]Card, len(Columns))
	summary := BoardSummary{ColumnCounts: make(map[Column]int, len(Columns))}
	identified, authorised := decimal.Zero, decimal.Zero

	for _, insp := range in.Inspections {
		if !c.IsActive(insp) {
			continue
		}
		r := in.Rollups.For(insp.ID)
		card := BuildCard(c, insp, r, entriesByCheck[insp.ID], in.Now, in.ExpiryWindow)
		buckets[card.Column] = append(buckets[card.Column], card)

		summary.ActiveCount++
		summary.ColumnCounts[card.Column]++
		if card.SLA.IsOverdue {
			summary.OverdueCount++
		}
		if card.SLA.IsExpiringSoon {
			summary.ExpiringCount++
		}
		if insp.SentAt != nil {
			summary.SentCount++
			if r.AuthorisedCount > 0 {
				summary.ConvertedCount++
			}
		}
		identified = identified.Add(r.IdentifiedTotal)
		authorised = authorised.Add(r.AuthorisedTotal)
	}

	if p := Percent(decimal.NewFromInt(int64(summary.ConvertedCount)), decimal.NewFromInt(int64(summary.SentCount))); p != nil {
		summary.ConversionRate = *p
	}
	summary.IdentifiedTotal = RoundCurrency(identified)
	summary.AuthorisedTotal = RoundCurrency(authorised)

	board := Board{Columns: make([]BoardColumn, 0, len(Columns)), Summary: summary}
	for _, column := range Columns {
		cards := buckets[column]
		sortCards(cards)
		if cards == nil {
			cards = []Card{}
		}
		board.Columns = append(board.Columns, BoardColumn{Column: column, Cards: cards})
	}
	return board
}

// sortCards orders by promised time (unpromised last), then by creation.
func sortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		pi, pj := cards[i].Inspection.PromisedAt, cards[j].Inspection.PromisedAt
		switch {
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.Before(*pj)
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return cards[i].Inspection.CreatedAt.Before(cards[j].Inspection.CreatedAt)
	})
}

// clockSummary totals clocked minutes and lists technicians still clocked in.
func clockSummary(entries []TimeEntry, now time.Time) (int, []uuid.UUID) {
	minutes := 0
	seen := make(map[uuid.UUID]bool)
	var active []uuid.UUID
	for _, e := range entries {
		if e.ClockOutAt != nil {
			minutes += e.DurationMinutes
			continue
		}
		minutes += roundMinutes(now.Sub(e.ClockInAt))
		if !seen[e.TechnicianID] {
			seen[e.TechnicianID] = true
			active = append(active, e.TechnicianID)
		}
	}
	return minutes, active
}
