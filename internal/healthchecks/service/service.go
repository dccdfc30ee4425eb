package service

import (
	"context"
	"time"

	"vhc_backend/internal/events"
	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/repository"
	"vhc_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// KPICache is the narrow cache surface the KPI endpoint needs.
// Implemented by platform/cache.
type KPICache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, keyPrefix string) (int, error)
}

// Service provides the health check board, workflow and KPI use cases.
type Service struct {
	repo       repository.Store
	classifier domain.Classifier
	settings   Settings
	bus        events.Bus
	log        *logger.Logger
	cache      KPICache // nil disables KPI caching
	now        func() time.Time
}

// New creates a new health check service.
func New(repo repository.Store, settings Settings, bus events.Bus, log *logger.Logger) *Service {
	settings = settings.withDefaults()
	return &Service{
		repo:       repo,
		classifier: domain.NewClassifier(settings.TerminalStatuses),
		settings:   settings,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// SetCache injects the KPI cache.
func (s *Service) SetCache(c KPICache) {
	s.cache = c
}

// Classifier exposes the configured status classifier.
func (s *Service) Classifier() domain.Classifier {
	return s.classifier
}

// excludedStatuses are dropped from board and sweep queries up front.
func (s *Service) excludedStatuses() []string {
	out := []string{string(domain.StatusAwaitingArrival)}
	for _, st := range s.classifier.TerminalStatuses() {
		out = append(out, string(st))
	}
	return out
}

// loadRelated fetches repair items and time entries for ids concurrently.
// Ids that vanished between fetches simply produce empty slices.
func (s *Service) loadRelated(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, withEntries bool) (domain.Rollups, []domain.TimeEntry, error) {
	var (
		items   []domain.RepairItem
		entries []domain.TimeEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListRepairItems(gctx, orgID, ids)
		return err
	})
	if withEntries {
		g.Go(func() error {
			var err error
			entries, err = s.repo.ListTimeEntries(gctx, orgID, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return domain.Aggregate(items), entries, nil
}

func idsOf(inspections []domain.Inspection) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(inspections))
	for _, in := range inspections {
		ids = append(ids, in.ID)
	}
	return ids
}
