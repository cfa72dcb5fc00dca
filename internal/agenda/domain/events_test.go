package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgendaEvents(t *testing.T) {
	at := time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)

	scheduled := NewItemScheduled("house", "item-1", "evt-1", "2025-03-05", Interval{Start: "09:00", End: "09:30"}, true, at)
	assert.Equal(t, RoutingKeyItemScheduled, scheduled.RoutingKey())
	assert.Equal(t, "item-1", scheduled.AggregateID())
	assert.Equal(t, AggregateTypeItem, scheduled.AggregateType())
	assert.Equal(t, at, scheduled.OccurredAt())

	payload, err := json.Marshal(scheduled)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "house", decoded["context_id"])
	assert.Equal(t, "09:30", decoded["end_time"])
	assert.Equal(t, true, decoded["moved"])

	unscheduled := NewItemUnscheduled("house", "item-1", "evt-1", at)
	assert.Equal(t, RoutingKeyItemUnscheduled, unscheduled.RoutingKey())
	assert.Equal(t, "evt-1", unscheduled.CalendarEventID)

	deferred := NewItemDeferred("house", "item-1", DeferArchive, "", at)
	assert.Equal(t, RoutingKeyItemDeferred, deferred.RoutingKey())
	assert.Equal(t, DeferArchive, deferred.Option)

	assert.ElementsMatch(t,
		[]string{scheduled.RoutingKey(), unscheduled.RoutingKey(), deferred.RoutingKey()},
		AgendaRoutingKeys())
}
