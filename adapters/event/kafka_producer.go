package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/logger"
)

const TopicMediaEvents = "media.events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger logger.Logger
}

func NewKafkaPublisher(cfg config.Config, log logger.Logger) (*KafkaPublisher, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = TopicMediaEvents
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka publisher successfully.", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return &KafkaPublisher{writer: writer, topic: topic, logger: log}, nil
}

// Publish keys messages by resource id so changes to one item stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, evt service.ChangeEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.ResourceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(evt.Kind)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Closed Kafka publisher")
	return err
}
