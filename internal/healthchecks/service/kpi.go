package service

import (
	"context"
	"fmt"

	"vhc_backend/internal/events"
	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/repository"
	"vhc_backend/internal/healthchecks/transport"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MonthlyKPIs returns month-to-date KPIs compared with the previous month.
func (s *Service) MonthlyKPIs(ctx context.Context, tenantID uuid.UUID, q transport.KPIQuery) (transport.MonthlyKPIResponse, error) {
	siteID, err := ParseKPIQuery(q)
	if err != nil {
		return transport.MonthlyKPIResponse{}, err
	}

	current, _ := domain.MonthWindows(s.now(), s.settings.Location)
	key := kpiCacheKey(tenantID, siteID, current.Key())

	var cached transport.MonthlyKPIResponse
	if s.cache != nil {
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.WithContext(ctx).Warn("kpi cache read failed", "key", key, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	kpis, err := s.ComputeKPIs(ctx, tenantID, siteID)
	if err != nil {
		return transport.MonthlyKPIResponse{}, err
	}
	resp := toMonthlyKPIResponse(kpis)

	if s.cache != nil && s.settings.KPICacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, resp, s.settings.KPICacheTTL); err != nil {
			s.log.WithContext(ctx).Warn("kpi cache write failed", "key", key, "error", err)
		}
	}
	return resp, nil
}

// ComputeKPIs reads both cohorts and derives the monthly KPIs without caching.
func (s *Service) ComputeKPIs(ctx context.Context, tenantID uuid.UUID, siteID *uuid.UUID) (domain.MonthlyKPIs, error) {
	curWindow, prevWindow := domain.MonthWindows(s.now(), s.settings.Location)

	var current, previous domain.Cohort
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.loadCohort(gctx, tenantID, siteID, curWindow)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.loadCohort(gctx, tenantID, siteID, prevWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MonthlyKPIs{}, err
	}

	kpis := domain.ComputeMonthlyKPIs(current, previous, domain.KPIOptions{
		AdvisorMinHealthChecks: s.settings.AdvisorMinHealthChecks,
	})
	if err := s.nameAdvisors(ctx, tenantID, &kpis); err != nil {
		return domain.MonthlyKPIs{}, err
	}
	return kpis, nil
}

func (s *Service) loadCohort(ctx context.Context, tenantID uuid.UUID, siteID *uuid.UUID, w domain.MonthWindow) (domain.Cohort, error) {
	inspections, err := s.repo.ListCohort(ctx, repository.CohortParams{
		OrganizationID: tenantID,
		SiteID:         siteID,
		From:           w.Start,
		To:             w.End,
	})
	if err != nil {
		return domain.Cohort{}, err
	}

	rollups, _, err := s.loadRelated(ctx, tenantID, idsOf(inspections), false)
	if err != nil {
		return domain.Cohort{}, err
	}
	return domain.Cohort{Window: w, Inspections: inspections, Rollups: rollups}, nil
}

func (s *Service) nameAdvisors(ctx context.Context, tenantID uuid.UUID, kpis *domain.MonthlyKPIs) error {
	var ids []uuid.UUID
	for _, top := range []*domain.AdvisorScore{kpis.Current.TopAdvisor, kpis.Previous.TopAdvisor} {
		if top != nil {
			ids = append(ids, top.AdvisorID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	names, err := s.repo.AdvisorNames(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	for _, top := range []*domain.AdvisorScore{kpis.Current.TopAdvisor, kpis.Previous.TopAdvisor} {
		if top != nil {
			top.Name = names[top.AdvisorID]
		}
	}
	return nil
}

// InvalidateKPIs drops cached KPIs of the organization whose check changed status.
func (s *Service) InvalidateKPIs() events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.HealthCheckStatusChanged)
		if !ok || s.cache == nil {
			return nil
		}
		_, err := s.cache.DeletePrefix(ctx, kpiOrgPrefix(e.OrganizationID))
		return err
	}
}

func kpiOrgPrefix(orgID uuid.UUID) string {
	return fmt.Sprintf("kpi:%s:", orgID)
}

func kpiCacheKey(orgID uuid.UUID, siteID *uuid.UUID, period string) string {
	site := "all"
	if siteID != nil {
		site = siteID.String()
	}
	return kpiOrgPrefix(orgID) + site + ":" + period
}
