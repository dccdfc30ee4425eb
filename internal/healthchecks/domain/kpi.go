package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAdvisorMinHealthChecks is the volume an advisor needs before being ranked.
const DefaultAdvisorMinHealthChecks = 5

var (
	redSoldWeight    = decimal.NewFromFloat(0.6)
	authorisedWeight = decimal.NewFromFloat(0.4)
)

// completedStatuses are the statuses at or past technician completion.
var completedStatuses = map[Status]bool{
	StatusTechCompleted:   true,
	StatusAwaitingReview:  true,
	StatusAwaitingPricing: true,
	StatusAwaitingParts:   true,
	StatusReadyToSend:     true,
	StatusSent:            true,
	StatusDelivered:       true,
	StatusOpened:          true,
	StatusPartialResponse: true,
	StatusAuthorized:      true,
	StatusDeclined:        true,
	StatusCompleted:       true,
	StatusExpired:         true,
}

// IsPostTechCompleted reports whether status counts as a completed health check.
func IsPostTechCompleted(status Status) bool {
	return completedStatuses[status]
}

// MonthWindow is an inclusive reporting range.
type MonthWindow struct {
	Start time.Time
	End   time.Time
	Days  int
}

// Contains reports whether t falls inside the window.
func (w MonthWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Key identifies the window's month, e.g. "2024-01".
func (w MonthWindow) Key() string {
	return w.Start.Format("2006-01")
}

// MonthWindows returns the month-to-date window ending at now and the full previous month.
func MonthWindows(now time.Time, loc *time.Location) (current, previous MonthWindow) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	prevStart := monthStart.AddDate(0, -1, 0)
	prevEnd := monthStart.Add(-time.Nanosecond)

	current = MonthWindow{Start: monthStart, End: now, Days: now.Day()}
	previous = MonthWindow{Start: prevStart, End: prevEnd, Days: prevEnd.Day()}
	return current, previous
}

// Cohort is the set of inspections reported for one window.
type Cohort struct {
	Window      MonthWindow
	Inspections []Inspection
	Rollups     Rollups
}

// AdvisorScore is the ranking record of one advisor.
type AdvisorScore struct {
	AdvisorID       uuid.UUID        `json:"advisorId"`
	Name            string           `json:"name"`
	HCCount         int              `json:"hcCount"`
	RedSoldPct      *decimal.Decimal `json:"redSoldPct"`
	AuthorisedTotal decimal.Decimal  `json:"authorisedTotal"`
	Score           decimal.Decimal  `json:"score"`
}

// PeriodKPI holds the headline figures of one cohort.
type PeriodKPI struct {
	Period          string           `json:"period"`
	HCCount         int              `json:"hcCount"`
	CompletedCount  int              `json:"completedCount"`
	SentCount       int              `json:"sentCount"`
	ConvertedCount  int              `json:"convertedCount"`
	ConversionRate  decimal.Decimal  `json:"conversionRate"`
	RedIdentified   int              `json:"redIdentified"`
	RedAuthorised   int              `json:"redAuthorised"`
	RedSoldPct      *decimal.Decimal `json:"redSoldPct"`
	IdentifiedTotal decimal.Decimal  `json:"identifiedTotal"`
	AuthorisedTotal decimal.Decimal  `json:"authorisedTotal"`
	AvgIdentified   *decimal.Decimal `json:"avgIdentified"`
	AvgSold         *decimal.Decimal `json:"avgSold"`
	AvgPerDay       decimal.Decimal  `json:"avgPerDay"`
	DaysInPeriod    int              `json:"daysInPeriod"`
	TopAdvisor      *AdvisorScore    `json:"topAdvisor"`
}

// KPIDeltas is current minus previous for each comparable metric.
type KPIDeltas struct {
	HCCount         int              `json:"hcCount"`
	CompletedCount  int              `json:"completedCount"`
	ConversionRate  *decimal.Decimal `json:"conversionRate"`
	RedSoldPct      *decimal.Decimal `json:"redSoldPct"`
	IdentifiedTotal *decimal.Decimal `json:"identifiedTotal"`
	AuthorisedTotal *decimal.Decimal `json:"authorisedTotal"`
	AvgIdentified   *decimal.Decimal `json:"avgIdentified"`
	AvgSold         *decimal.Decimal `json:"avgSold"`
	AvgPerDay       *decimal.Decimal `json:"avgPerDay"`
}

// MonthlyKPIs compares the current month to date with the previous month.
type MonthlyKPIs struct {
	Current  PeriodKPI `json:"current"`
	Previous PeriodKPI `json:"previous"`
	Deltas   KPIDeltas `json:"deltas"`
}

// KPIOptions tunes the ranking.
type KPIOptions struct {
	AdvisorMinHealthChecks int
}

// ComputeMonthlyKPIs derives both periods and their deltas.
func ComputeMonthlyKPIs(current, previous Cohort, opts KPIOptions) MonthlyKPIs {
	cur := ComputePeriodKPI(current, opts)
	prev := ComputePeriodKPI(previous, opts)

	return MonthlyKPIs{
		Current:  cur,
		Previous: prev,
		Deltas: KPIDeltas{
			HCCount:         cur.HCCount - prev.HCCount,
			CompletedCount:  cur.CompletedCount - prev.CompletedCount,
			ConversionRate:  deltaOf(&cur.ConversionRate, &prev.ConversionRate, RoundPercent),
			RedSoldPct:      deltaOf(cur.RedSoldPct, prev.RedSoldPct, RoundPercent),
			IdentifiedTotal: deltaOf(&cur.IdentifiedTotal, &prev.IdentifiedTotal, RoundCurrency),
			AuthorisedTotal: deltaOf(&cur.AuthorisedTotal, &prev.AuthorisedTotal, RoundCurrency),
			AvgIdentified:   deltaOf(cur.AvgIdentified, prev.AvgIdentified, RoundCurrency),
			AvgSold:         deltaOf(cur.AvgSold, prev.AvgSold, RoundCurrency),
			AvgPerDay:       deltaOf(&cur.AvgPerDay, &prev.AvgPerDay, RoundPercent),
		},
	}
}

func deltaOf(a, b *decimal.Decimal, round func(decimal.Decimal) decimal.Decimal) *decimal.Decimal {
	if a == nil || b == nil {
		return nil
	}
	d := round(a.Sub(*b))
	return &d
}

type advisorAcc struct {
	id            uuid.UUID
	hcCount       int
	redIdentified int
	redAuthorised int
	authorised    decimal.Decimal
}

// ComputePeriodKPI aggregates one cohort.
func ComputePeriodKPI(c Cohort, opts KPIOptions) PeriodKPI {
	minChecks := opts.AdvisorMinHealthChecks
	if minChecks <= 0 {
		minChecks = DefaultAdvisorMinHealthChecks
	}

	k := PeriodKPI{
		Period:       c.Window.Key(),
		DaysInPeriod: c.Window.Days,
	}
	identified, authorised := decimal.Zero, decimal.Zero
	advisors := make(map[uuid.UUID]*advisorAcc)

	for _, in := range c.Inspections {
		if in.DeletedAt != nil {
			continue
		}
		r := c.Rollups.For(in.ID)

		k.HCCount++
		if IsPostTechCompleted(in.Status) {
			k.CompletedCount++
		}
		if in.SentAt != nil {
			k.SentCount++
			if r.AuthorisedCount > 0 {
				k.ConvertedCount++
			}
		}
		k.RedIdentified += r.Severity.Identified.Red
		k.RedAuthorised += r.Severity.Authorised.Red
		identified = identified.Add(r.IdentifiedTotal)
		authorised = authorised.Add(r.AuthorisedTotal)

		if in.AdvisorID == nil {
			continue
		}
		acc, ok := advisors[*in.AdvisorID]
		if !ok {
			acc = &advisorAcc{id: *in.AdvisorID}
			advisors[*in.AdvisorID] = acc
		}
		acc.hcCount++
		acc.redIdentified += r.Severity.Identified.Red
		acc.redAuthorised += r.Severity.Authorised.Red
		acc.authorised = acc.authorised.Add(r.AuthorisedTotal)
	}

	k.IdentifiedTotal = RoundCurrency(identified)
	k.AuthorisedTotal = RoundCurrency(authorised)
	k.RedSoldPct = Percent(decimal.NewFromInt(int64(k.RedAuthorised)), decimal.NewFromInt(int64(k.RedIdentified)))
	if p := Percent(decimal.NewFromInt(int64(k.ConvertedCount)), decimal.NewFromInt(int64(k.SentCount))); p != nil {
		k.ConversionRate = *p
	}
	if k.HCCount > 0 {
		count := decimal.NewFromInt(int64(k.HCCount))
		avgIdentified := RoundCurrency(identified.Div(count))
		avgSold := RoundCurrency(authorised.Div(count))
		k.AvgIdentified = &avgIdentified
		k.AvgSold = &avgSold
	}
	if k.DaysInPeriod > 0 {
		k.AvgPerDay = RoundPercent(decimal.NewFromInt(int64(k.CompletedCount)).Div(decimal.NewFromInt(int64(k.DaysInPeriod))))
	}

	k.TopAdvisor = rankAdvisors(advisors, minChecks)
	return k
}

// rankAdvisors returns the best qualified advisor or nil when nobody qualifies.
func rankAdvisors(advisors map[uuid.UUID]*advisorAcc, minChecks int) *AdvisorScore {
	qualified := make([]*advisorAcc, 0, len(advisors))
	maxAuthorised := decimal.Zero
	for _, acc := range advisors {
		if acc.hcCount < minChecks {
			continue
		}
		qualified = append(qualified, acc)
		if acc.authorised.GreaterThan(maxAuthorised) {
			maxAuthorised = acc.authorised
		}
	}
	if len(qualified) == 0 {
		return nil
	}

	scores := make([]AdvisorScore, 0, len(qualified))
	raw := make(map[uuid.UUID]decimal.Decimal, len(qualified))
	for _, acc := range qualified {
		redIdentified := decimal.NewFromInt(int64(acc.redIdentified))
		pct := Percent(decimal.NewFromInt(int64(acc.redAuthorised)), redIdentified)

		redComponent := decimal.Zero
		if !redIdentified.IsZero() {
			redComponent = decimal.NewFromInt(int64(acc.redAuthorised)).Div(redIdentified).Mul(hundred)
		}
		valueComponent := decimal.Zero
		if !maxAuthorised.IsZero() {
			valueComponent = acc.authorised.Div(maxAuthorised).Mul(hundred)
		}
		score := redSoldWeight.Mul(redComponent).Add(authorisedWeight.Mul(valueComponent))
		raw[acc.id] = score

		scores = append(scores, AdvisorScore{
			AdvisorID:       acc.id,
			HCCount:         acc.hcCount,
			RedSoldPct:      pct,
			AuthorisedTotal: RoundCurrency(acc.authorised),
			Score:           RoundPercent(score),
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		si, sj := raw[scores[i].AdvisorID], raw[scores[j].AdvisorID]
		if !si.Equal(sj) {
			return si.GreaterThan(sj)
		}
		if !scores[i].AuthorisedTotal.Equal(scores[j].AuthorisedTotal) {
			return scores[i].AuthorisedTotal.GreaterThan(scores[j].AuthorisedTotal)
		}
		return scores[i].AdvisorID.String() < scores[j].AdvisorID.String()
	})

	top := scores[0]
	return &top
}
