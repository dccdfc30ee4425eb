package service

import (
	"context"
	"errors"
	"time"

	"vhc_backend/internal/events"
	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/platform/apperr"

	"github.com/google/uuid"
)

// SweepResult counts what one SLA sweep did.
type SweepResult struct {
	Organizations int `json:"organizations"`
	Scanned       int `json:"scanned"`
	Expired       int `json:"expired"`
	Overdue       int `json:"overdue"`
	Expiring      int `json:"expiring"`
}

func (r *SweepResult) add(o SweepResult) {
	r.Organizations += o.Organizations
	r.Scanned += o.Scanned
	r.Expired += o.Expired
	r.Overdue += o.Overdue
	r.Expiring += o.Expiring
}

// SweepAll runs the SLA sweep for every organization with open checks.
// A failing organization does not stop the others; the errors are joined.
func (s *Service) SweepAll(ctx context.Context) (SweepResult, error) {
	orgs, err := s.repo.ListOrganizationsWithOpenChecks(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var (
		total SweepResult
		errs  []error
	)
	for _, orgID := range orgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.SweepSLA(ctx, orgID)
		total.add(res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// SweepSLA expires customer links that ran out and raises alerts for
// overdue or soon-expiring checks of one organization.
func (s *Service) SweepSLA(ctx context.Context, orgID uuid.UUID) (SweepResult, error) {
	now := s.now()
	candidates, err := s.repo.ListSLACandidates(ctx, orgID, s.excludedStatuses(), now.Add(s.settings.ExpiryWindow))
	if err != nil {
		return SweepResult{}, err
	}

	log := s.log.WithContext(ctx)
	res := SweepResult{Organizations: 1, Scanned: len(candidates)}
	for _, in := range candidates {
		if s.linkExpired(in, now) {
			_, err := s.applyTransition(ctx, in, domain.StatusExpired, nil, "customer link expired", SourceSweep)
			switch {
			case err == nil:
				res.Expired++
				continue
			case apperr.Is(err, apperr.KindConflict), apperr.Is(err, apperr.KindNotFound):
				log.Debug("sla sweep skipped moved health check", "healthCheckId", in.ID, "error", err)
				continue
			default:
				return res, err
			}
		}

		sla := domain.EvaluateSLA(domain.SLAInput{
			Terminal:       s.classifier.IsTerminal(in.Status),
			PromisedAt:     in.PromisedAt,
			TokenExpiresAt: in.TokenExpiresAt,
		}, now, s.settings.ExpiryWindow)

		var deadline time.Time
		switch sla.Alert {
		case domain.AlertOverdue:
			res.Overdue++
			deadline = *in.PromisedAt
		case domain.AlertExpiring:
			res.Expiring++
			deadline = *in.TokenExpiresAt
		default:
			continue
		}

		log.SLAAlert(in.ID.String(), string(sla.Alert), deadline)
		if s.bus != nil {
			err := s.bus.PublishSync(ctx, events.SLAAlertRaised{
				BaseEvent:      events.NewBaseEvent(),
				HealthCheckID:  in.ID,
				OrganizationID: in.OrganizationID,
				Alert:          string(sla.Alert),
				Deadline:       deadline,
			})
			if err != nil {
				log.Warn("sla alert handler failed", "healthCheckId", in.ID, "error", err)
			}
		}
	}
	return res, nil
}

func (s *Service) linkExpired(in domain.Inspection, now time.Time) bool {
	return s.classifier.Column(in.Status) == domain.ColumnCustomer &&
		in.TokenExpiresAt != nil && !in.TokenExpiresAt.After(now) &&
		s.classifier.CanTransition(in.Status, domain.StatusExpired)
}

// OrganizationsWithOpenChecks lists the organizations a sweep should visit.
func (s *Service) OrganizationsWithOpenChecks(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListOrganizationsWithOpenChecks(ctx)
}
