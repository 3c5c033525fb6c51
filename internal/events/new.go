package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Drivers accepted by New.
const (
	DriverNone   = "none"
	DriverKafka  = "kafka"
	DriverPubSub = "pubsub"
)

// Config selects and configures a publisher.
type Config struct {
	Driver string

	KafkaBrokers []string
	KafkaTopic   string

	PubSubProjectID string
	PubSubTopic     string
}

// New builds the publisher named by cfg.Driver. An empty driver yields Nop.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return Nop{}, nil
	case DriverKafka:
		return NewKafkaPublisher(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  logger,
		}), nil
	case DriverPubSub:
		return NewPubSubPublisher(ctx, PubSubConfig{
			ProjectID: cfg.PubSubProjectID,
			Topic:     cfg.PubSubTopic,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
