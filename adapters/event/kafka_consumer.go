package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/logger"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventHandler processes one change event. Returning an error stops Run with the
// message uncommitted, so the group resumes from it on the next start.
type EventHandler func(ctx context.Context, evt service.ChangeEvent) error

type KafkaConsumer struct {
	reader messageReader
	topic  string
	logger logger.Logger
}

func NewKafkaConsumer(cfg config.Config, groupID string, log logger.Logger) (*KafkaConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = TopicMediaEvents
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	log.Info("Initialize Kafka consumer successfully.", zap.String("topic", topic), zap.String("group", groupID))
	return &KafkaConsumer{reader: reader, topic: topic, logger: log}, nil
}

// Run fetches until ctx ends. Messages that cannot be decoded are logged and committed.
// A handler failure stops the loop before anything later is committed.
func (c *KafkaConsumer) Run(ctx context.Context, handle EventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to read from kafka topic %s: %w", c.topic, err)
		}

		var evt service.ChangeEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.logger.Warn("Skipping undecodable change event",
				zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset), zap.Error(err))
			c.commit(ctx, msg)
			continue
		}

		if err := handle(ctx, evt); err != nil {
			c.logger.Error("Failed to process change event", err,
				zap.String("kind", string(evt.Kind)), zap.String("resource_id", evt.ResourceID),
				zap.Int64("offset", msg.Offset))
			return fmt.Errorf("failed to process %s event for %s at offset %d: %w", evt.Kind, evt.ResourceID, msg.Offset, err)
		}
		c.commit(ctx, msg)
	}
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
