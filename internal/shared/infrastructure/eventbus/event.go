// Package eventbus carries outbox messages to handlers, either in process
// (local mode) or through a RabbitMQ topic exchange.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/domain"
	"github.com/google/uuid"
)

// Publisher delivers one outbox message. The outbox processor retries on
// error, so implementations report failures rather than swallow them.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// Handler reacts to events with the routing keys it declares.
type Handler interface {
	RoutingKeys() []string
	Handle(ctx context.Context, event *Event) error
}

// Event is a delivered message. Outbox bodies are serialised domain events,
// so the envelope fields sit beside the event's own fields.
type Event struct {
	EventID       uuid.UUID            `json:"event_id"`
	AggregateID   string               `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	RoutingKey    string               `json:"routing_key"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Metadata      domain.EventMetadata `json:"metadata,omitempty"`
	Payload       json.RawMessage      `json:"payload"`
}

// DecodeEvent parses a message body. routingKey is the delivery's key and
// fills in for bodies that do not carry one; a body without an explicit
// payload becomes its own payload.
func DecodeEvent(routingKey string, body []byte) (*Event, error) {
	event := &Event{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, err
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	if len(event.Payload) == 0 {
		event.Payload = json.RawMessage(body)
	}
	return event, nil
}

// NewEvent builds an event for a household, mostly for tests and replays.
func NewEvent(routingKey, aggregateID, contextID string, payload json.RawMessage) *Event {
	return &Event{
		EventID:     uuid.New(),
		AggregateID: aggregateID,
		RoutingKey:  routingKey,
		OccurredAt:  time.Now().UTC(),
		Metadata:    domain.EventMetadata{ContextID: contextID},
		Payload:     payload,
	}
}
