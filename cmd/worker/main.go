package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/adapters/event"
	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/logger"
)

// The worker relays library change events from Kafka to the Redis channel, so viewers on
// machines without broker access still see live updates.
func main() {
	fmt.Println("Starting Pictures Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("cannot load config: %v", err))
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	// Kafka Consumer
	consumer, err := event.NewKafkaConsumer(cfg, "pictures-relay-group", appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init Kafka consumer", err)
	}
	defer consumer.Close()

	var relay service.EventPublisher
	if cfg.Redis.Addr != "" {
		redisClient, err := event.NewRedisClient(cfg)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		redisPub := event.NewRedisPublisher(redisClient, cfg.Redis.Channel, appLogger)
		defer redisPub.Close()
		relay = redisPub
	} else {
		appLogger.Warn("Redis not configured, events are only logged")
	}

	appLogger.Info("Worker listening", zap.String("topic", cfg.Kafka.Topic))

	err = consumer.Run(ctx, func(ctx context.Context, evt service.ChangeEvent) error {
		appLogger.Info("Received change event",
			zap.String("kind", string(evt.Kind)),
			zap.String("resource_id", evt.ResourceID),
			zap.Time("occurred_at", evt.OccurredAt),
		)
		if relay == nil {
			return nil
		}
		return relay.Publish(ctx, evt)
	})
	if err != nil {
		appLogger.Error("Worker stopped with error", err)
		return
	}
	appLogger.Info("Worker stopped")
}
