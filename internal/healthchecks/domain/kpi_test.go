package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type cohortBuilder struct {
	t           *testing.T
	inspections []Inspection
	items       []RepairItem
}

// add creates count inspections for advisor, each with one red item priced at
// value, the first authorised of them authorised.
func (b *cohortBuilder) add(advisor uuid.UUID, count, authorised int, value string) {
	sent := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		in := Inspection{
			ID:        uuid.New(),
			AdvisorID: uuidPtr(advisor),
			Status:    StatusCompleted,
			SentAt:    &sent,
			CreatedAt: sent,
		}
		it := RepairItem{
			ID:            uuid.New(),
			HealthCheckID: in.ID,
			TotalIncVat:   dec(b.t, value),
			RAGs:          []RAG{RAGRed},
		}
		if i < authorised {
			it.OutcomeStatus = OutcomeAuthorised
		}
		b.inspections = append(b.inspections, in)
		b.items = append(b.items, it)
	}
}

func (b *cohortBuilder) cohort(days int) Cohort {
	return Cohort{
		Window:      MonthWindow{Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Days: days},
		Inspections: b.inspections,
		Rollups:     Aggregate(b.items),
	}
}

func TestComputeMonthlyKPIs(t *testing.T) {
	advisorA, advisorB, advisorC := uuid.New(), uuid.New(), uuid.New()
	b := &cohortBuilder{t: t}
	b.add(advisorA, 5, 3, "100")
	b.add(advisorB, 5, 1, "500")
	b.add(advisorC, 2, 2, "1000")

	kpis := ComputeMonthlyKPIs(b.cohort(10), Cohort{Window: MonthWindow{Days: 29}}, KPIOptions{})
	cur := kpis.Current

	if cur.HCCount != 12 || cur.CompletedCount != 12 {
		t.Fatalf("expected 12 checks and completions, got %d/%d", cur.HCCount, cur.CompletedCount)
	}
	if cur.RedIdentified != 12 || cur.RedAuthorised != 6 {
		t.Fatalf("expected red 12/6, got %d/%d", cur.RedIdentified, cur.RedAuthorised)
	}
	if cur.RedSoldPct == nil {
		t.Fatalf("expected red sold pct")
	}
	assertDecimal(t, "red sold pct", *cur.RedSoldPct, "50")
	assertDecimal(t, "identified", cur.IdentifiedTotal, "5000")
	assertDecimal(t, "authorised", cur.AuthorisedTotal, "2800")
	assertDecimal(t, "avg identified", *cur.AvgIdentified, "416.67")
	assertDecimal(t, "avg sold", *cur.AvgSold, "233.33")
	assertDecimal(t, "avg per day", cur.AvgPerDay, "1.2")
	assertDecimal(t, "conversion", cur.ConversionRate, "50")
	if cur.Period != "2024-03" {
		t.Fatalf("expected period 2024-03, got %s", cur.Period)
	}

	if cur.TopAdvisor == nil || cur.TopAdvisor.AdvisorID != advisorA {
		t.Fatalf("expected advisor A on top, got %+v", cur.TopAdvisor)
	}
	assertDecimal(t, "top score", cur.TopAdvisor.Score, "60")
	assertDecimal(t, "top red sold pct", *cur.TopAdvisor.RedSoldPct, "60")

	prev := kpis.Previous
	if prev.HCCount != 0 || prev.RedSoldPct != nil || prev.AvgIdentified != nil || prev.TopAdvisor != nil {
		t.Fatalf("empty cohort should yield zero counts and null ratios, got %+v", prev)
	}

	d := kpis.Deltas
	if d.HCCount != 12 {
		t.Fatalf("expected hc delta 12, got %d", d.HCCount)
	}
	if d.RedSoldPct != nil || d.AvgIdentified != nil || d.AvgSold != nil {
		t.Fatalf("deltas against null metrics must be null")
	}
	if d.IdentifiedTotal == nil {
		t.Fatalf("expected identified delta")
	}
	assertDecimal(t, "identified delta", *d.IdentifiedTotal, "5000")
	assertDecimal(t, "conversion delta", *d.ConversionRate, "50")
}

func TestComputePeriodKPI_NoQualifiedAdvisor(t *testing.T) {
	b := &cohortBuilder{t: t}
	b.add(uuid.New(), 4, 4, "100")
	b.add(uuid.New(), 3, 0, "100")

	k := ComputePeriodKPI(b.cohort(5), KPIOptions{})
	if k.TopAdvisor != nil {
		t.Fatalf("advisors with fewer than 5 checks must not be ranked, got %+v", k.TopAdvisor)
	}
}

func TestComputePeriodKPI_CustomThreshold(t *testing.T) {
	advisor := uuid.New()
	b := &cohortBuilder{t: t}
	b.add(advisor, 2, 1, "100")

	k := ComputePeriodKPI(b.cohort(5), KPIOptions{AdvisorMinHealthChecks: 2})
	if k.TopAdvisor == nil || k.TopAdvisor.AdvisorID != advisor {
		t.Fatalf("expected advisor to qualify with threshold 2, got %+v", k.TopAdvisor)
	}
}

func TestComputePeriodKPI_TieBreaksOnAuthorisedValue(t *testing.T) {
	// Both advisors sell every red item, so the score is driven by value alone
	// until both reach the maximum; equal value falls back to id order.
	lo, hi := uuid.MustParse("00000000-0000-0000-0000-000000000001"), uuid.MustParse("00000000-0000-0000-0000-000000000002")
	b := &cohortBuilder{t: t}
	b.add(hi, 5, 5, "100")
	b.add(lo, 5, 5, "100")

	k := ComputePeriodKPI(b.cohort(5), KPIOptions{})
	if k.TopAdvisor == nil || k.TopAdvisor.AdvisorID != lo {
		t.Fatalf("expected lowest id on an exact tie, got %+v", k.TopAdvisor)
	}
}

func TestComputePeriodKPI_RedSoldPctNullExactlyWhenNoRed(t *testing.T) {
	in := Inspection{ID: uuid.New(), Status: StatusSent}
	items := []RepairItem{{ID: uuid.New(), HealthCheckID: in.ID, TotalIncVat: dec(t, "10"), RAGs: []RAG{RAGAmber}}}

	k := ComputePeriodKPI(Cohort{Inspections: []Inspection{in}, Rollups: Aggregate(items)}, KPIOptions{})
	if k.RedSoldPct != nil {
		t.Fatalf("expected null red sold pct without red items")
	}
	if k.SentCount != 0 || !k.ConversionRate.IsZero() {
		t.Fatalf("no sent checks should give conversion 0, got %s", k.ConversionRate)
	}
}

func TestMonthWindows(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	cur, prev := MonthWindows(now, time.UTC)

	if !cur.Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || cur.Days != 10 {
		t.Fatalf("unexpected current window %+v", cur)
	}
	if !prev.Start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || prev.Days != 29 {
		t.Fatalf("unexpected previous window %+v", prev)
	}
	if prev.Contains(cur.Start) || !prev.Contains(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)) {
		t.Fatalf("previous window bounds are wrong: %+v", prev)
	}
}

func TestMonthWindows_UsesLocation(t *testing.T) {
	bst := time.FixedZone("BST", 3600)
	now := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)

	cur, prev := MonthWindows(now, bst)
	if cur.Key() != "2024-04" || cur.Days != 1 {
		t.Fatalf("expected April day 1 in local time, got %s day %d", cur.Key(), cur.Days)
	}
	if prev.Key() != "2024-03" || prev.Days != 31 {
		t.Fatalf("expected March with 31 days, got %s with %d", prev.Key(), prev.Days)
	}
}
