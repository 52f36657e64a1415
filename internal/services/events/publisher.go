package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"speedguard/internal/config"
	"speedguard/internal/logger"
	"speedguard/internal/model"
)

const flushTimeout = 10 * time.Second

type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaPublisher publishes every persisted violation record to a topic,
// keyed by plate so that one vehicle's records stay in one partition.
type KafkaPublisher struct {
	producer producer
	topic    string
	logger   *logger.Logger

	published atomic.Int64
	failed    atomic.Int64
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *logger.Logger) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.BootstrapServers,
		"acks":                "all",
		"enable.idempotence":  true,
		"linger.ms":           5,
		"delivery.timeout.ms": 30000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger.Info("✅ Kafka publisher initialized - Topic: %s, Servers: %s", cfg.Topic, cfg.BootstrapServers)
	return &KafkaPublisher{producer: p, topic: cfg.Topic, logger: logger}, nil
}

// Publish sends rec and waits for its delivery report or ctx.
func (p *KafkaPublisher) Publish(ctx context.Context, rec model.ViolationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	delivery := make(chan kafka.Event, 1)
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(rec.Numberplate),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(rec.Status)},
			{Key: "track_id", Value: []byte(fmt.Sprint(rec.TrackID))},
		},
	}

	if err := p.producer.Produce(msg, delivery); err != nil {
		p.failed.Add(1)
		return fmt.Errorf("failed to produce: %w", err)
	}

	select {
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			p.failed.Add(1)
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if m.TopicPartition.Error != nil {
			p.failed.Add(1)
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		p.published.Add(1)
		return nil
	case <-ctx.Done():
		p.failed.Add(1)
		return ctx.Err()
	}
}

// Stats returns the number of delivered and failed records.
func (p *KafkaPublisher) Stats() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}

// Close flushes pending messages and shuts the producer down.
func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(int(flushTimeout.Milliseconds())); remaining > 0 {
		p.logger.Warning("⚠️  %d messages still in queue after flush timeout", remaining)
	}
	p.producer.Close()

	published, failed := p.Stats()
	p.logger.Info("🛑 Kafka publisher closed - published: %d, failed: %d", published, failed)
}
