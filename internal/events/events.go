// Package events publishes domain events to the worker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event types. They double as worker job types.
const (
	TypeSymptomLogged   = "symptom_logged"
	TypeProviderRefresh = "provider_refresh"
)

// ErrUnknownDriver is returned by New for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown event driver")

// Event is a domain event. The JSON form is the message body on every transport.
type Event struct {
	Type       string    `json:"job_type"`
	PetID      string    `json:"pet_id,omitempty"`
	ZipCode    string    `json:"zip_code,omitempty"`
	Date       string    `json:"date,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key returns the partitioning key for the event.
func (e Event) Key() string {
	if e.ZipCode != "" {
		return e.ZipCode
	}
	return e.Type
}

// Encode serializes an event.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("serialize event: %w", err)
	}
	return data, nil
}

// Decode parses an event.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	return e, nil
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

var _ Publisher = Nop{}
