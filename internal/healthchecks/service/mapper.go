package service

import (
	"time"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/transport"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func toBoardResponse(b domain.Board, generatedAt time.Time) transport.BoardResponse {
	columns := make([]transport.ColumnResponse, 0, len(b.Columns))
	for _, col := range b.Columns {
		cards := make([]transport.CardResponse, 0, len(col.Cards))
		for _, card := range col.Cards {
			cards = append(cards, toCardResponse(card))
		}
		columns = append(columns, transport.ColumnResponse{
			ID:    string(col.Column),
			Count: len(cards),
			Cards: cards,
		})
	}

	counts := make(map[string]int, len(domain.Columns))
	for _, column := range domain.Columns {
		counts[string(column)] = b.Summary.ColumnCounts[column]
	}

	return transport.BoardResponse{
		Columns: columns,
		Summary: transport.BoardSummaryResponse{
			ActiveCount:     b.Summary.ActiveCount,
			ColumnCounts:    counts,
			OverdueCount:    b.Summary.OverdueCount,
			ExpiringCount:   b.Summary.ExpiringCount,
			SentCount:       b.Summary.SentCount,
			ConvertedCount:  b.Summary.ConvertedCount,
			ConversionRate:  b.Summary.ConversionRate.InexactFloat64(),
			IdentifiedTotal: b.Summary.IdentifiedTotal.InexactFloat64(),
			AuthorisedTotal: b.Summary.AuthorisedTotal.InexactFloat64(),
		},
		GeneratedAt: generatedAt,
	}
}

func toCardResponse(c domain.Card) transport.CardResponse {
	in := c.Inspection
	active := c.ActiveTechnicians
	if active == nil {
		active = []uuid.UUID{}
	}
	return transport.CardResponse{
		ID:             in.ID,
		VehicleReg:     in.VehicleReg,
		Status:         string(in.Status),
		Column:         string(c.Column),
		SiteID:         in.SiteID,
		TechnicianID:   in.TechnicianID,
		AdvisorID:      in.AdvisorID,
		PromisedAt:     in.PromisedAt,
		TokenExpiresAt: in.TokenExpiresAt,
		SentAt:         in.SentAt,
		DueDate:        in.DueDate,
		CreatedAt:      in.CreatedAt,
		Workflow: transport.WorkflowResponse{
			Technician: string(c.Workflow.Technician),
			Labour:     string(c.Workflow.Labour),
			Parts:      string(c.Workflow.Parts),
			Authorised: string(c.Workflow.Authorised),
			Sent:       string(c.Workflow.Sent),
		},
		IsOverdue:       c.SLA.IsOverdue,
		IsExpiringSoon:  c.SLA.IsExpiringSoon,
		Alert:           string(c.SLA.Alert),
		IdentifiedTotal: c.IdentifiedTotal.InexactFloat64(),
		AuthorisedTotal: c.AuthorisedTotal.InexactFloat64(),
		DeclinedTotal:   c.DeclinedTotal.InexactFloat64(),
		Severity: transport.SeverityResponse{
			Identified: toSeverityCounts(c.Severity.Identified),
			Authorised: toSeverityCounts(c.Severity.Authorised),
		},
		ItemCount:         c.ItemCount,
		AuthorisedCount:   c.AuthorisedCount,
		ClockedMinutes:    c.ClockedMinutes,
		ActiveTechnicians: active,
	}
}

func toSeverityCounts(c domain.SeverityCounts) transport.SeverityCountsResponse {
	return transport.SeverityCountsResponse{Red: c.Red, Amber: c.Amber, Green: c.Green}
}

func toTimelineResponse(id uuid.UUID, tl domain.Timeline) transport.TimelineResponse {
	entries := make([]transport.TimelineEntryResponse, 0, len(tl.Entries))
	for _, e := range tl.Entries {
		var from *string
		if e.FromStatus != nil {
			s := string(*e.FromStatus)
			from = &s
		}
		entries = append(entries, transport.TimelineEntryResponse{
			FromStatus:      from,
			ToStatus:        string(e.ToStatus),
			ChangedAt:       e.ChangedAt,
			ChangedBy:       e.ChangedBy,
			DurationMinutes: e.DurationMinutes,
			Duration:        e.Duration,
			Synthetic:       e.Synthetic,
		})
	}
	return transport.TimelineResponse{
		HealthCheckID: id,
		Entries:       entries,
		TotalMinutes:  tl.TotalMinutes,
		TotalDuration: tl.TotalDuration,
	}
}

func toMonthlyKPIResponse(k domain.MonthlyKPIs) transport.MonthlyKPIResponse {
	return transport.MonthlyKPIResponse{
		Current:  toPeriodKPIResponse(k.Current),
		Previous: toPeriodKPIResponse(k.Previous),
		Deltas: transport.KPIDeltasResponse{
			HCCount:         k.Deltas.HCCount,
			CompletedCount:  k.Deltas.CompletedCount,
			ConversionRate:  floatPtr(k.Deltas.ConversionRate),
			RedSoldPct:      floatPtr(k.Deltas.RedSoldPct),
			IdentifiedTotal: floatPtr(k.Deltas.IdentifiedTotal),
			AuthorisedTotal: floatPtr(k.Deltas.AuthorisedTotal),
			AvgIdentified:   floatPtr(k.Deltas.AvgIdentified),
			AvgSold:         floatPtr(k.Deltas.AvgSold),
			AvgPerDay:       floatPtr(k.Deltas.AvgPerDay),
		},
	}
}

func toPeriodKPIResponse(p domain.PeriodKPI) transport.PeriodKPIResponse {
	resp := transport.PeriodKPIResponse{
		Period:          p.Period,
		HCCount:         p.HCCount,
		CompletedCount:  p.CompletedCount,
		SentCount:       p.SentCount,
		ConversionRate:  p.ConversionRate.InexactFloat64(),
		RedIdentified:   p.RedIdentified,
		RedAuthorised:   p.RedAuthorised,
		RedSoldPct:      floatPtr(p.RedSoldPct),
		IdentifiedTotal: p.IdentifiedTotal.InexactFloat64(),
		AuthorisedTotal: p.AuthorisedTotal.InexactFloat64(),
		AvgIdentified:   floatPtr(p.AvgIdentified),
		AvgSold:         floatPtr(p.AvgSold),
		AvgPerDay:       p.AvgPerDay.InexactFloat64(),
		DaysInPeriod:    p.DaysInPeriod,
	}
	if a := p.TopAdvisor; a != nil {
		resp.TopAdvisor = &transport.AdvisorResponse{
			AdvisorID:       a.AdvisorID,
			Name:            a.Name,
			HCCount:         a.HCCount,
			RedSoldPct:      floatPtr(a.RedSoldPct),
			AuthorisedTotal: a.AuthorisedTotal.InexactFloat64(),
			Score:           a.Score.InexactFloat64(),
		}
	}
	return resp
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
