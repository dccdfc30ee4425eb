package scheduler

import (
	"context"
	"fmt"

	"vhc_backend/internal/healthchecks/service"
	"vhc_backend/platform/apperr"
	"vhc_backend/platform/config"
	"vhc_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Sweeper runs SLA sweeps.
type Sweeper interface {
	SweepAll(ctx context.Context) (service.SweepResult, error)
	SweepSLA(ctx context.Context, orgID uuid.UUID) (service.SweepResult, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(sweeper, log)
	w.server = server
	return w, nil
}

func newWorker(sweeper Sweeper, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{mux: mux, sweeper: sweeper, log: log}
	mux.HandleFunc(TaskSLASweep, w.handleSLASweep)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSLASweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSLASweepPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	var res service.SweepResult
	if payload.OrganizationID == "" {
		res, err = w.sweeper.SweepAll(ctx)
	} else {
		orgID, perr := uuid.Parse(payload.OrganizationID)
		if perr != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, perr)
		}
		res, err = w.sweeper.SweepSLA(ctx, orgID)
	}

	w.log.Info("sla sweep finished",
		"organizations", res.Organizations,
		"scanned", res.Scanned,
		"expired", res.Expired,
		"overdue", res.Overdue,
		"expiring", res.Expiring,
	)
	if err != nil && !apperr.Is(err, apperr.KindUnavailable) {
		// Only storage outages are retried.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}
