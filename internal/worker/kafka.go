package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/pollenpaw/pollenpaw/internal/events"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// DefaultKafkaMaxRetries is the retry budget cmd/worker gives each message.
const DefaultKafkaMaxRetries = 3

// KafkaConsumerConfig configures a KafkaConsumer.
type KafkaConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// MaxRetries is the number of retries after the first attempt. Zero
	// commits a failed message after one attempt.
	MaxRetries uint64
	// RetryInterval is the first backoff interval between attempts.
	RetryInterval time.Duration
	Dispatcher    *Dispatcher
	Logger        zerolog.Logger
}

// KafkaConsumer reads jobs from a Kafka topic. A message's offset is committed
// once it is handled or its retries are exhausted.
type KafkaConsumer struct {
	reader        MessageReader
	dispatcher    *Dispatcher
	maxRetries    uint64
	retryInterval time.Duration
	logger        zerolog.Logger
}

// NewKafkaConsumer creates a consumer group reader.
func NewKafkaConsumer(cfg KafkaConsumerConfig) *KafkaConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return NewKafkaConsumerWithReader(reader, cfg)
}

// NewKafkaConsumerWithReader creates a consumer over an existing reader.
// Brokers, Topic and GroupID in cfg are ignored.
func NewKafkaConsumerWithReader(r MessageReader, cfg KafkaConsumerConfig) *KafkaConsumer {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}
	return &KafkaConsumer{
		reader:        r,
		dispatcher:    cfg.Dispatcher,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        cfg.Logger,
	}
}

// Start consumes until ctx is done. It returns nil on cancellation.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().Msg("starting kafka consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("job failed after retries, dropping message")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("committing offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, msg kafkago.Message) error {
	logger := c.logger.With().
		Str("key", string(msg.Key)).
		Int64("offset", msg.Offset).
		Logger()

	event, err := events.Decode(msg.Value)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return nil
	}

	startTime := time.Now()
	operation := func() error {
		err := c.dispatcher.Dispatch(ctx, event)
		if errors.Is(err, ErrUnknownJob) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)
	err = backoff.Retry(operation, b)
	if errors.Is(err, ErrUnknownJob) {
		logger.Warn().Str("job_type", event.Type).Msg("unknown job type")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info().
		Str("job_type", event.Type).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return nil
}

// Close closes the reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
