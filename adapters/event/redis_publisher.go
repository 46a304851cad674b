package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/logger"
)

func NewRedisClient(cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}
	return rdb, nil
}

// RedisPublisher broadcasts change events on a pub/sub channel so other processes on the
// same machine can refresh their views.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  logger.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, log logger.Logger) *RedisPublisher {
	log.Info("Connect Redis publisher successfully.", zap.String("channel", channel))
	return &RedisPublisher{client: client, channel: channel, logger: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt service.ChangeEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis channel %s: %w", p.channel, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
