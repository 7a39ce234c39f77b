package eventing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Producer names this service in every envelope.
const Producer = "aisd"

// Envelope is the wire form of every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Producer      string          `json:"producer"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Meta overrides envelope fields; zero values are defaulted.
type Meta struct {
	EventID       string
	OccurredAt    time.Time
	CorrelationID string
	SchemaVersion int
}

// Typed events name themselves on the bus.
type Typed interface {
	EventType() string
}

// Timed events carry their own occurrence time.
type Timed interface {
	EventTime() time.Time
}

// BuildEnvelope marshals event and fills the envelope around it.
func BuildEnvelope(event any, meta Meta) (Envelope, error) {
	if event == nil {
		return Envelope{}, errors.New("eventing: nil event")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("eventing: marshal payload: %w", err)
	}

	env := Envelope{
		EventID:       meta.EventID,
		EventType:     EventTypeOf(event),
		Producer:      Producer,
		OccurredAt:    meta.OccurredAt,
		CorrelationID: meta.CorrelationID,
		SchemaVersion: meta.SchemaVersion,
		Payload:       payload,
	}
	if env.EventID == "" {
		env.EventID = NewEventID()
	}
	if env.CorrelationID == "" {
		env.CorrelationID = env.EventID
	}
	if env.SchemaVersion == 0 {
		env.SchemaVersion = 1
	}
	if env.OccurredAt.IsZero() {
		if timed, ok := event.(Timed); ok {
			env.OccurredAt = timed.EventTime()
		}
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now()
	}
	env.OccurredAt = env.OccurredAt.UTC()
	return env, nil
}

// EventTypeOf returns the event's own type name, or its Go type name.
func EventTypeOf(event any) string {
	if typed, ok := event.(Typed); ok {
		return typed.EventType()
	}
	return fmt.Sprintf("%T", event)
}
