package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"discussion-grader/internal/config"
	"discussion-grader/internal/logger"
	"discussion-grader/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const connectTimeout = 5 * time.Second

// Publisher pushes finished run reports onto a Redis list (LPUSH, newest
// first) so gradebook tooling can consume them without watching the output
// directory.
type Publisher struct {
	client *redis.Client
	queue  string
	log    zerolog.Logger
}

// Connect dials the configured Redis and fails fast when it is unreachable.
func Connect(cfg *config.Config) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: connectTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.RedisAddr(), err)
	}

	return NewPublisher(rdb, cfg.Redis.ReportQueue), nil
}

func NewPublisher(client *redis.Client, queue string) *Publisher {
	return &Publisher{
		client: client,
		queue:  queue,
		log:    logger.Get().With().Str("component", "queue").Str("queue", queue).Logger(),
	}
}

func (p *Publisher) PublishReport(ctx context.Context, report model.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := p.client.LPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to publish report to %s: %w", p.queue, err)
	}

	p.log.Debug().Str("run_id", report.RunID).Int("bytes", len(data)).Msg("Report pushed")
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
