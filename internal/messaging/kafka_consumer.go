package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/betversa/ev-engine/internal/models"
)

// EventIngester runs the pipeline for one event odds document
type EventIngester interface {
	IngestEvent(ctx context.Context, msg models.EventOddsMessage) error
}

// KafkaConsumer consumes event odds documents from Kafka and feeds them to the
// EV pipeline
type KafkaConsumer struct {
	reader   *kafka.Reader
	ingester EventIngester
	logger   zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "event_odds"
	GroupID string   // e.g., "ev-engine"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	ingester EventIngester,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		ingester: ingester,
		logger:   logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage decodes one event odds document and ingests it
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var doc models.EventOddsMessage
	if err := json.Unmarshal(msg.Value, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if doc.Event.ID == "" {
		return fmt.Errorf("event odds message at offset %d has no event id", msg.Offset)
	}

	c.logger.Debug().
		Str("event_id", doc.Event.ID).
		Str("sport", doc.SportKey).
		Int("bookmakers", len(doc.Event.Bookmakers)).
		Msg("processing event odds")

	if err := c.ingester.IngestEvent(ctx, doc); err != nil {
		return fmt.Errorf("failed to ingest event %s: %w", doc.Event.ID, err)
	}

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
