package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shipline/pkg/logger"

	"github.com/IBM/sarama"
)

// Producer publishes booking lifecycle events to Kafka. A nil Producer is
// valid and drops events, so the engine runs without a broker in development.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{producer: producer, topic: topic}, nil
}

func (p *Producer) Publish(ctx context.Context, event BookingEvent) error {
	if p == nil || p.producer == nil {
		return nil
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.BookingCode),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish %s for %s: %w", event.Type, event.BookingCode, err)
	}

	logger.GetDefault().WithFields(map[string]any{
		"type":      event.Type,
		"booking":   event.BookingCode,
		"partition": partition,
		"offset":    offset,
	}).Debug("booking event published")
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
