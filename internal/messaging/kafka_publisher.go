package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/betversa/ev-engine/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes play batches to Kafka keyed by run ID
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// KafkaPublisherConfig holds Kafka publisher configuration
type KafkaPublisherConfig struct {
	Brokers []string
	Topic   string // e.g., "ev_plays"
}

// NewKafkaPublisher creates a new Kafka publisher
func NewKafkaPublisher(config KafkaPublisherConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return newKafkaPublisher(writer, config.Topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish writes one plays batch
func (p *KafkaPublisher) Publish(ctx context.Context, msg models.PlaysMessage) error {
	if msg.Plays == nil {
		msg.Plays = []models.Play{}
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal plays message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RunID),
		Value: value,
		Time:  msg.GeneratedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish plays to %s: %w", p.topic, err)
	}

	p.logger.Debug().
		Str("run_id", msg.RunID).
		Int("plays", len(msg.Plays)).
		Msg("published plays")

	return nil
}

// Close flushes and closes the Kafka writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
