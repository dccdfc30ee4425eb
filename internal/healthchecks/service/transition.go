package service

import (
	"context"
	"fmt"

	"vhc_backend/internal/events"
	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/repository"
	"vhc_backend/internal/healthchecks/transport"
	"vhc_backend/platform/apperr"
	"vhc_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Sources recorded on status change events.
const (
	SourceBoard = "board"
	SourceSweep = "sla_sweep"
)

// Transitions lists the statuses a check may move to next.
func (s *Service) Transitions(ctx context.Context, tenantID, id uuid.UUID) (transport.TransitionsResponse, error) {
	in, err := s.repo.GetInspection(ctx, tenantID, id)
	if err != nil {
		return transport.TransitionsResponse{}, err
	}

	allowed := make([]transport.TransitionOption, 0)
	for _, next := range s.classifier.Transitions(in.Status) {
		allowed = append(allowed, transport.TransitionOption{
			Status: string(next),
			Column: string(s.classifier.Column(next)),
		})
	}

	return transport.TransitionsResponse{
		HealthCheckID: in.ID,
		Status:        string(in.Status),
		Column:        string(s.classifier.Column(in.Status)),
		Allowed:       allowed,
	}, nil
}

// Transition validates and applies a drag-drop or explicit status move.
func (s *Service) Transition(ctx context.Context, tenantID, actorID, id uuid.UUID, req transport.TransitionRequest) (transport.CardResponse, error) {
	if req.Status != "" && req.Column != "" {
		return transport.CardResponse{}, apperr.Validation("provide either status or column, not both")
	}

	in, err := s.repo.GetInspection(ctx, tenantID, id)
	if err != nil {
		return transport.CardResponse{}, err
	}

	target, err := s.resolveTarget(in.Status, req)
	if err != nil {
		return transport.CardResponse{}, err
	}

	actor := actorID
	updated, err := s.applyTransition(ctx, in, target, &actor, sanitize.Text(req.Notes), SourceBoard)
	if err != nil {
		return transport.CardResponse{}, err
	}
	return s.cardFor(ctx, tenantID, updated)
}

func (s *Service) resolveTarget(from domain.Status, req transport.TransitionRequest) (domain.Status, error) {
	if req.Column != "" {
		column := domain.Column(req.Column)
		if s.classifier.Column(from) == column && from != domain.StatusAwaitingArrival {
			return "", apperr.Validation(fmt.Sprintf("health check is already in column %s", column))
		}
		target, ok := s.classifier.DropTarget(from, column)
		if !ok {
			return "", s.illegalMove(from, fmt.Sprintf("cannot move health check from %s into column %s", from, column))
		}
		return target, nil
	}

	target := domain.Status(req.Status)
	if !target.IsKnown() {
		return "", apperr.Validation(fmt.Sprintf("unknown status %s", req.Status))
	}
	if !s.classifier.CanTransition(from, target) {
		return "", s.illegalMove(from, fmt.Sprintf("cannot move health check from %s to %s", from, target))
	}
	return target, nil
}

func (s *Service) illegalMove(from domain.Status, message string) error {
	allowed := make([]string, 0)
	for _, next := range s.classifier.Transitions(from) {
		allowed = append(allowed, string(next))
	}
	return apperr.Validation(message).WithDetails(map[string]any{"allowed": allowed})
}

// applyTransition persists the move, then logs and publishes it.
func (s *Service) applyTransition(ctx context.Context, in domain.Inspection, to domain.Status, actorID *uuid.UUID, notes, source string) (domain.Inspection, error) {
	updated, err := s.repo.UpdateStatus(ctx, repository.StatusChange{
		OrganizationID: in.OrganizationID,
		HealthCheckID:  in.ID,
		From:           in.Status,
		To:             to,
		ChangedBy:      actorID,
		Notes:          notes,
		ChangedAt:      s.now(),
	})
	if err != nil {
		return domain.Inspection{}, err
	}

	actor := source
	if actorID != nil {
		actor = actorID.String()
	}
	s.log.WithContext(ctx).StatusTransition(in.ID.String(), string(in.Status), string(to), actor)

	if s.bus != nil {
		s.bus.Publish(ctx, events.HealthCheckStatusChanged{
			BaseEvent:      events.NewBaseEvent(),
			HealthCheckID:  in.ID,
			OrganizationID: in.OrganizationID,
			FromStatus:     string(in.Status),
			ToStatus:       string(to),
			ChangedBy:      actorID,
			Source:         source,
		})
	}
	return updated, nil
}
