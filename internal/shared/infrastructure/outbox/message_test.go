package outbox

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemEvent struct {
	domain.BaseEvent
	ItemID string `json:"item_id"`
}

func newItemEvent(itemID string) *itemEvent {
	return &itemEvent{
		BaseEvent: domain.NewBaseEvent(itemID, "SchedulableItem", "agenda.item.scheduled", time.Now()),
		ItemID:    itemID,
	}
}

// badEvent cannot be encoded.
type badEvent struct {
	domain.BaseEvent
}

func (badEvent) MarshalJSON() ([]byte, error) { return nil, errors.New("boom") }

func TestNewMessage(t *testing.T) {
	event := newItemEvent("item-1")
	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr-1", CausationID: "cause-1", ContextID: "house"})

	msg, err := NewMessage(event)

	require.NoError(t, err)
	assert.Zero(t, msg.ID)
	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, "SchedulableItem", msg.AggregateType)
	assert.Equal(t, "item-1", msg.AggregateID)
	assert.Equal(t, "agenda.item.scheduled", msg.RoutingKey)
	assert.Equal(t, msg.RoutingKey, msg.EventType)
	assert.True(t, event.OccurredAt().Equal(msg.CreatedAt))
	assert.Equal(t, StatePending, msg.State())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "item-1", payload["item_id"])
	assert.Equal(t, "agenda.item.scheduled", payload["routing_key"])

	assert.Equal(t, event.Metadata(), msg.EventMetadata())
}

func TestNewMessage_EncodeError(t *testing.T) {
	event := &badEvent{BaseEvent: domain.NewBaseEvent("x", "SchedulableItem", "agenda.item.deferred", time.Now())}

	_, err := NewMessage(event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "agenda.item.deferred payload")
}

func TestNewMessages(t *testing.T) {
	msgs, err := NewMessages([]domain.DomainEvent{newItemEvent("item-1"), newItemEvent("item-2")})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "item-1", msgs[0].AggregateID)
	assert.Equal(t, "item-2", msgs[1].AggregateID)

	_, err = NewMessages([]domain.DomainEvent{
		newItemEvent("item-1"),
		&badEvent{BaseEvent: domain.NewBaseEvent("x", "SchedulableItem", "agenda.item.deferred", time.Now())},
	})
	assert.Error(t, err)
}

func TestMessage_State(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		msg  Message
		want State
	}{
		{"fresh", Message{}, StatePending},
		{"failed once", Message{RetryCount: 1}, StateRetrying},
		{"published after retry", Message{RetryCount: 2, PublishedAt: &now}, StatePublished},
		{"dead", Message{RetryCount: 5, DeadLetteredAt: &now}, StateDead},
		{"dead wins over published", Message{PublishedAt: &now, DeadLetteredAt: &now}, StateDead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.State())
		})
	}
}

func TestMessage_EventMetadata_Unreadable(t *testing.T) {
	msg := &Message{Metadata: json.RawMessage(`not json`)}
	assert.Equal(t, domain.EventMetadata{}, msg.EventMetadata())

	assert.Equal(t, domain.EventMetadata{}, (&Message{}).EventMetadata())
}

func TestMessage_Age(t *testing.T) {
	now := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

	assert.Zero(t, (&Message{}).Age(now))
	assert.Equal(t, 90*time.Second, (&Message{CreatedAt: now.Add(-90 * time.Second)}).Age(now))
}
