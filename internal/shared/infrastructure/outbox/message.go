package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/domain"
	"github.com/google/uuid"
)

// State is where a message sits in the relay lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateRetrying  State = "retrying"
	StatePublished State = "published"
	StateDead      State = "dead"
)

// Message is one row of the outbox table: a serialized domain event plus its
// relay bookkeeping.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   string
	// EventType mirrors RoutingKey; the column exists so ad-hoc queries
	// can filter without knowing the broker topology.
	EventType  string
	RoutingKey string
	Payload    json.RawMessage
	Metadata   json.RawMessage
	CreatedAt  time.Time

	PublishedAt *time.Time
	NextRetryAt *time.Time
	RetryCount  int
	LastError   *string

	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serializes event for the outbox.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.RoutingKey(), err)
	}
	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, fmt.Errorf("encode %s metadata: %w", event.RoutingKey(), err)
	}

	key := event.RoutingKey()
	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     key,
		RoutingKey:    key,
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewMessages converts events in order. Nothing is returned if any event
// fails to encode.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, len(events))
	for i, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs[i] = msg
	}
	return msgs, nil
}

// State derives the lifecycle state from the bookkeeping columns. Dead wins
// over published so a resurrected row is never counted twice.
func (m *Message) State() State {
	switch {
	case m.DeadLetteredAt != nil:
		return StateDead
	case m.PublishedAt != nil:
		return StatePublished
	case m.RetryCount > 0:
		return StateRetrying
	}
	return StatePending
}

// EventMetadata decodes the stored metadata. Unreadable metadata yields the
// zero value; it only feeds log fields.
func (m *Message) EventMetadata() domain.EventMetadata {
	var meta domain.EventMetadata
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return meta
}

// Age is how long the message has waited since its event occurred.
func (m *Message) Age(now time.Time) time.Duration {
	if m.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(m.CreatedAt)
}
