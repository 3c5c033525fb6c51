package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/events"
)

// PubSubHandler pulls jobs from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if handleMessage(ctx, h.dispatcher, msg.Data, logger) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// handleMessage dispatches one message body and reports whether it should be
// acknowledged.
func handleMessage(ctx context.Context, d *Dispatcher, data []byte, logger zerolog.Logger) bool {
	startTime := time.Now()

	event, err := events.Decode(data)
	if err != nil {
		// Redelivery cannot fix a malformed body.
		logger.Error().Err(err).Msg("failed to parse message")
		return true
	}

	logger = logger.With().Str("job_type", event.Type).Logger()

	err = d.Dispatch(ctx, event)
	switch {
	case errors.Is(err, ErrUnknownJob):
		logger.Warn().Msg("unknown job type")
		return true
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		return false
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}

// PushEnvelope is the body Pub/Sub push subscriptions POST.
type PushEnvelope struct {
	Message struct {
		Data        []byte    `json:"data"`
		MessageID   string    `json:"messageId"`
		PublishTime time.Time `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// PushHandler serves Pub/Sub push deliveries. A non-2xx status makes Pub/Sub
// retry the message.
type PushHandler struct {
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewPushHandler creates a push endpoint handler.
func NewPushHandler(d *Dispatcher, logger zerolog.Logger) *PushHandler {
	return &PushHandler{dispatcher: d, logger: logger}
}

func (h *PushHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var env PushEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.logger.Error().Err(err).Msg("malformed push envelope")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	logger := h.logger.With().
		Str("message_id", env.Message.MessageID).
		Str("subscription", env.Subscription).
		Logger()

	if handleMessage(r.Context(), h.dispatcher, env.Message.Data, logger) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
}
