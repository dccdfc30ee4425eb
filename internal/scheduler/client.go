package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"vhc_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// SweepEnqueuer schedules SLA sweeps.
type SweepEnqueuer interface {
	EnqueueSLASweep(ctx context.Context, payload SLASweepPayload, uniqueFor time.Duration) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueSLASweep enqueues a sweep at most once per uniqueFor window.
// A sweep already pending for the same scope is not an error.
func (c *Client) EnqueueSLASweep(ctx context.Context, payload SLASweepPayload, uniqueFor time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewSLASweepTask(payload)
	if err != nil {
		return err
	}

	opts := []asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(3)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
