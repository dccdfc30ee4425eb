package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEffectiveTotal_VATFallback(t *testing.T) {
	it := RepairItem{LabourTotal: dec(t, "100"), PartsTotal: dec(t, "50")}
	assertDecimal(t, "effective total", EffectiveTotal(it), "180.00")
}

func TestEffectiveTotal_SelectedOptionWins(t *testing.T) {
	it := RepairItem{
		TotalIncVat: dec(t, "500"),
		SelectedOption: &RepairOption{
			LabourTotal: dec(t, "40"),
			PartsTotal:  dec(t, "60"),
		},
	}
	assertDecimal(t, "option total", EffectiveTotal(it), "120")

	it.SelectedOption.TotalIncVat = dec(t, "99.99")
	assertDecimal(t, "option inc vat", EffectiveTotal(it), "99.99")
}

func TestEffectiveTotal_AllZero(t *testing.T) {
	if !EffectiveTotal(RepairItem{}).IsZero() {
		t.Fatalf("expected zero total for an unpriced item")
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"12.50":  "12.5",
		" 3 ":    "3",
		"":       "0",
		"abc":    "0",
		"1,000":  "0",
		"-20.10": "-20.1",
	}
	for raw, want := range cases {
		assertDecimal(t, "parse "+raw, ParseAmount(raw), want)
	}
}

func TestWorstRAG(t *testing.T) {
	cases := []struct {
		in   []RAG
		want RAG
	}{
		{[]RAG{RAGRed, RAGGreen}, RAGRed},
		{[]RAG{RAGGreen, RAGAmber}, RAGAmber},
		{[]RAG{RAGAmber, RAGRed, RAGGreen}, RAGRed},
		{[]RAG{RAGGreen}, RAGGreen},
		{nil, RAGNone},
		{[]RAG{"purple"}, RAGNone},
	}
	for _, tc := range cases {
		if got := WorstRAG(tc.in...); got != tc.want {
			t.Errorf("WorstRAG(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAggregate_SingleItem(t *testing.T) {
	hc := uuid.New()
	items := []RepairItem{{
		ID:            uuid.New(),
		HealthCheckID: hc,
		LabourTotal:   dec(t, "100"),
		PartsTotal:    dec(t, "50"),
		OutcomeStatus: OutcomeAuthorised,
		RAGs:          []RAG{RAGGreen, RAGRed},
	}}

	r := Aggregate(items).For(hc)
	assertDecimal(t, "identified", r.IdentifiedTotal, "180")
	assertDecimal(t, "authorised", r.AuthorisedTotal, "180")
	if r.Severity.Identified.Red != 1 || r.Severity.Authorised.Red != 1 {
		t.Fatalf("expected one red identified and authorised, got %+v", r.Severity)
	}
	if r.Severity.Identified.Green != 0 {
		t.Fatalf("red must take precedence over green, got %+v", r.Severity)
	}
	if len(r.TopLevelItems) != 1 || len(r.NonGroupItems) != 1 {
		t.Fatalf("expected item in both lists, got top=%d nongroup=%d", len(r.TopLevelItems), len(r.NonGroupItems))
	}
}

func TestAggregate_CustomerApprovedCountsAsAuthorised(t *testing.T) {
	hc := uuid.New()
	items := []RepairItem{
		{ID: uuid.New(), HealthCheckID: hc, TotalIncVat: dec(t, "60"), CustomerApproved: boolPtr(true)},
		{ID: uuid.New(), HealthCheckID: hc, TotalIncVat: dec(t, "40"), CustomerApproved: boolPtr(false)},
	}

	r := Aggregate(items).For(hc)
	assertDecimal(t, "authorised", r.AuthorisedTotal, "60")
	assertDecimal(t, "declined", r.DeclinedTotal, "40")
	if r.AuthorisedCount != 1 || r.ItemCount != 2 {
		t.Fatalf("expected 1 of 2 authorised, got %d of %d", r.AuthorisedCount, r.ItemCount)
	}
}

func TestAggregate_GroupFallbackUsesAuthorisedChildrenOnly(t *testing.T) {
	hc := uuid.New()
	group := uuid.New()
	items := []RepairItem{
		{ID: group, HealthCheckID: hc, IsGroup: true, TotalIncVat: dec(t, "300"), RAGs: []RAG{RAGAmber}},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), TotalIncVat: dec(t, "100"), OutcomeStatus: OutcomeAuthorised, RAGs: []RAG{RAGRed}},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), TotalIncVat: dec(t, "200"), OutcomeStatus: OutcomeDeclined},
	}

	r := Aggregate(items).For(hc)
	assertDecimal(t, "identified", r.IdentifiedTotal, "300")
	assertDecimal(t, "authorised", r.AuthorisedTotal, "100")
	assertDecimal(t, "declined", r.DeclinedTotal, "200")
	if r.ItemCount != 1 || r.AuthorisedCount != 1 {
		t.Fatalf("group is a single top-level unit, got items=%d authorised=%d", r.ItemCount, r.AuthorisedCount)
	}
	if r.Severity.Identified.Red != 1 {
		t.Fatalf("group severity should take the worst child RAG, got %+v", r.Severity.Identified)
	}
	if len(r.NonGroupItems) != 2 || len(r.TopLevelItems) != 1 {
		t.Fatalf("expected 2 non-group and 1 top-level, got %d and %d", len(r.NonGroupItems), len(r.TopLevelItems))
	}
}

func TestAggregate_AuthorisedGroupDoesNotAddChildren(t *testing.T) {
	hc := uuid.New()
	group := uuid.New()
	items := []RepairItem{
		{ID: group, HealthCheckID: hc, IsGroup: true, TotalIncVat: dec(t, "250"), OutcomeStatus: OutcomeAuthorised},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), TotalIncVat: dec(t, "100"), OutcomeStatus: OutcomeAuthorised},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), TotalIncVat: dec(t, "150"), OutcomeStatus: OutcomeAuthorised},
	}

	r := Aggregate(items).For(hc)
	assertDecimal(t, "identified", r.IdentifiedTotal, "250")
	assertDecimal(t, "authorised", r.AuthorisedTotal, "250")
}

func TestAggregate_ZeroPricedGroupSumsChildren(t *testing.T) {
	hc := uuid.New()
	group := uuid.New()
	items := []RepairItem{
		{ID: group, HealthCheckID: hc, IsGroup: true},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), LabourTotal: dec(t, "50")},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), TotalIncVat: dec(t, "40")},
	}

	r := Aggregate(items).For(hc)
	assertDecimal(t, "identified", r.IdentifiedTotal, "100")
}

func TestAggregate_SkipsDeletedOrphanedAndUnowned(t *testing.T) {
	hc := uuid.New()
	now := time.Now()
	kept := uuid.New()
	items := []RepairItem{
		{ID: kept, HealthCheckID: hc, TotalIncVat: dec(t, "10")},
		{ID: kept, HealthCheckID: hc, TotalIncVat: dec(t, "10")},
		{ID: uuid.New(), HealthCheckID: hc, TotalIncVat: dec(t, "20"), DeletedAt: &now},
		{ID: uuid.New(), HealthCheckID: hc, TotalIncVat: dec(t, "30"), OutcomeStatus: OutcomeDeleted},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(uuid.New()), TotalIncVat: dec(t, "40")},
		{ID: uuid.New(), TotalIncVat: dec(t, "50")},
	}

	rollups := Aggregate(items)
	r := rollups.For(hc)
	assertDecimal(t, "identified", r.IdentifiedTotal, "10")
	if r.ItemCount != 1 {
		t.Fatalf("expected 1 counted item, got %d", r.ItemCount)
	}
	if len(r.TopLevelItems) != 2 {
		t.Fatalf("deleted-outcome item stays listed for workflow, got %d top-level", len(r.TopLevelItems))
	}
	if _, ok := rollups[uuid.Nil]; ok {
		t.Fatalf("items without an inspection must not be aggregated")
	}
}

func TestRollupsForUnknownIDIsEmpty(t *testing.T) {
	r := Aggregate(nil).For(uuid.New())
	if !r.IdentifiedTotal.IsZero() || r.ItemCount != 0 || len(r.NonGroupItems) != 0 {
		t.Fatalf("expected empty rollup, got %+v", r)
	}
}

func TestAggregate_NoDoubleCountingAcrossInspections(t *testing.T) {
	hcA, hcB := uuid.New(), uuid.New()
	items := []RepairItem{
		{ID: uuid.New(), HealthCheckID: hcA, TotalIncVat: dec(t, "10"), OutcomeStatus: OutcomeAuthorised},
		{ID: uuid.New(), HealthCheckID: hcB, TotalIncVat: dec(t, "20")},
	}

	rollups := Aggregate(items)
	assertDecimal(t, "a authorised", rollups.For(hcA).AuthorisedTotal, "10")
	assertDecimal(t, "b authorised", rollups.For(hcB).AuthorisedTotal, "0")
	assertDecimal(t, "b identified", rollups.For(hcB).IdentifiedTotal, "20")
}

func TestAggregate_GroupIgnoresDeletedOutcomeChildren(t *testing.T) {
	hc := uuid.New()
	group := uuid.New()
	items := []RepairItem{
		{ID: group, HealthCheckID: hc, IsGroup: true},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), TotalIncVat: dec(t, "100"), LabourStatus: ProgressComplete, RAGs: []RAG{RAGGreen}},
		{ID: uuid.New(), HealthCheckID: hc, ParentID: uuidPtr(group), TotalIncVat: dec(t, "900"), LabourStatus: ProgressPending, OutcomeStatus: OutcomeDeleted, RAGs: []RAG{RAGRed}},
	}

	r := Aggregate(items).For(hc)
	assertDecimal(t, "identified", r.IdentifiedTotal, "100")
	if r.Severity.Identified.Red != 0 || r.Severity.Identified.Green != 1 {
		t.Fatalf("deleted child must not affect severity, got %+v", r.Severity.Identified)
	}
	if len(r.NonGroupItems) != 1 {
		t.Fatalf("deleted child must not drive labour progress, got %d items", len(r.NonGroupItems))
	}
	if got := DeriveWorkflow(r, WorkflowTimestamps{}).Labour; got != StageComplete {
		t.Fatalf("labour = %q, want %q", got, StageComplete)
	}
}
