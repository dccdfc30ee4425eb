package scheduler

import (
	"context"
	"time"

	"vhc_backend/platform/logger"
)

const (
	defaultExportLogCleanupInterval = 24 * time.Hour
	defaultExportLogRetention       = 90 * 24 * time.Hour
)

// ExportLogPruner deletes export log rows older than a cutoff.
type ExportLogPruner interface {
	DeleteExportsBefore(ctx context.Context, before time.Time) (int64, error)
}

// ExportLogCleanup periodically removes old export log entries.
type ExportLogCleanup struct {
	repo      ExportLogPruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewExportLogCleanup(repo ExportLogPruner, log *logger.Logger, interval, retention time.Duration) *ExportLogCleanup {
	if interval <= 0 {
		interval = defaultExportLogCleanupInterval
	}
	if retention <= 0 {
		retention = defaultExportLogRetention
	}

	return &ExportLogCleanup{
		repo:      repo,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *ExportLogCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *ExportLogCleanup) cleanup(ctx context.Context) {
	deleted, err := c.repo.DeleteExportsBefore(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.log.DatabaseError("delete export log entries", err)
		return
	}

	if deleted > 0 {
		c.log.Info("export log cleanup deleted entries", "deleted", deleted)
	}
}
