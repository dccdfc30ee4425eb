package service

import (
	"context"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/repository"
	"vhc_backend/internal/healthchecks/transport"
	"vhc_backend/platform/apperr"

	"github.com/google/uuid"
)

// BoardFilter narrows the board to one site, technician or advisor.
type BoardFilter struct {
	SiteID       *uuid.UUID
	TechnicianID *uuid.UUID
	AdvisorID    *uuid.UUID
}

// ParseBoardQuery converts validated query strings into a filter.
func ParseBoardQuery(q transport.BoardQuery) (BoardFilter, error) {
	var (
		f   BoardFilter
		err error
	)
	if f.SiteID, err = parseOptionalUUID("siteId", q.SiteID); err != nil {
		return BoardFilter{}, err
	}
	if f.TechnicianID, err = parseOptionalUUID("technicianId", q.TechnicianID); err != nil {
		return BoardFilter{}, err
	}
	if f.AdvisorID, err = parseOptionalUUID("advisorId", q.AdvisorID); err != nil {
		return BoardFilter{}, err
	}
	return f, nil
}

// ParseKPIQuery returns the optional site the KPIs are restricted to.
func ParseKPIQuery(q transport.KPIQuery) (*uuid.UUID, error) {
	return parseOptionalUUID("siteId", q.SiteID)
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation(field + " must be a valid UUID")
	}
	return &id, nil
}

// Snapshot builds the board from one point-in-time read of storage.
func (s *Service) Snapshot(ctx context.Context, tenantID uuid.UUID, filter BoardFilter) (domain.Board, error) {
	inspections, err := s.repo.ListBoardInspections(ctx, repository.BoardParams{
		OrganizationID:   tenantID,
		SiteID:           filter.SiteID,
		TechnicianID:     filter.TechnicianID,
		AdvisorID:        filter.AdvisorID,
		ExcludedStatuses: s.excludedStatuses(),
	})
	if err != nil {
		return domain.Board{}, err
	}

	rollups, entries, err := s.loadRelated(ctx, tenantID, idsOf(inspections), true)
	if err != nil {
		return domain.Board{}, err
	}

	return domain.BuildBoard(s.classifier, domain.BoardInput{
		Inspections:  inspections,
		Rollups:      rollups,
		TimeEntries:  entries,
		Now:          s.now(),
		ExpiryWindow: s.settings.ExpiryWindow,
	}), nil
}

// Board returns the workflow board for the tenant.
func (s *Service) Board(ctx context.Context, tenantID uuid.UUID, q transport.BoardQuery) (transport.BoardResponse, error) {
	filter, err := ParseBoardQuery(q)
	if err != nil {
		return transport.BoardResponse{}, err
	}

	board, err := s.Snapshot(ctx, tenantID, filter)
	if err != nil {
		return transport.BoardResponse{}, err
	}
	return toBoardResponse(board, s.now()), nil
}

// Workflow returns a single annotated card, including inactive checks.
func (s *Service) Workflow(ctx context.Context, tenantID, id uuid.UUID) (transport.CardResponse, error) {
	in, err := s.repo.GetInspection(ctx, tenantID, id)
	if err != nil {
		return transport.CardResponse{}, err
	}
	return s.cardFor(ctx, tenantID, in)
}

func (s *Service) cardFor(ctx context.Context, tenantID uuid.UUID, in domain.Inspection) (transport.CardResponse, error) {
	rollups, entries, err := s.loadRelated(ctx, tenantID, []uuid.UUID{in.ID}, true)
	if err != nil {
		return transport.CardResponse{}, err
	}
	card := domain.BuildCard(s.classifier, in, rollups.For(in.ID), entries, s.now(), s.settings.ExpiryWindow)
	return toCardResponse(card), nil
}

// Timeline returns the status history of a check with elapsed durations.
func (s *Service) Timeline(ctx context.Context, tenantID, id uuid.UUID) (transport.TimelineResponse, error) {
	in, err := s.repo.GetInspection(ctx, tenantID, id)
	if err != nil {
		return transport.TimelineResponse{}, err
	}

	history, err := s.repo.ListStatusHistory(ctx, tenantID, id)
	if err != nil {
		return transport.TimelineResponse{}, err
	}

	return toTimelineResponse(in.ID, domain.BuildTimeline(in.CreatedAt, history)), nil
}
