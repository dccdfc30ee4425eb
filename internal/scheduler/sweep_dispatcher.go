package scheduler

import (
	"context"
	"time"

	"vhc_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultSLASweepInterval = 5 * time.Minute

// OrganizationLister lists organizations that have checks worth sweeping.
type OrganizationLister interface {
	OrganizationsWithOpenChecks(ctx context.Context) ([]uuid.UUID, error)
}

// SweepDispatcher periodically enqueues one SLA sweep per organization.
type SweepDispatcher struct {
	orgs     OrganizationLister
	enqueuer SweepEnqueuer
	log      *logger.Logger
	interval time.Duration
}

func NewSweepDispatcher(orgs OrganizationLister, enqueuer SweepEnqueuer, log *logger.Logger, interval time.Duration) *SweepDispatcher {
	if interval <= 0 {
		interval = defaultSLASweepInterval
	}
	return &SweepDispatcher{orgs: orgs, enqueuer: enqueuer, log: log, interval: interval}
}

func (d *SweepDispatcher) Run(ctx context.Context) {
	if d == nil || d.orgs == nil || d.enqueuer == nil {
		return
	}

	d.dispatch(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

// dispatch returns the number of sweeps enqueued.
func (d *SweepDispatcher) dispatch(ctx context.Context) int {
	orgs, err := d.orgs.OrganizationsWithOpenChecks(ctx)
	if err != nil {
		d.log.Warn("sla sweep dispatch failed", "error", err)
		return 0
	}

	enqueued := 0
	for _, orgID := range orgs {
		payload := SLASweepPayload{OrganizationID: orgID.String()}
		if err := d.enqueuer.EnqueueSLASweep(ctx, payload, d.interval); err != nil {
			d.log.Warn("sla sweep enqueue failed", "organizationId", orgID, "error", err)
			continue
		}
		enqueued++
	}
	return enqueued
}
