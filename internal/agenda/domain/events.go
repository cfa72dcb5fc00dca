package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/homebase/internal/shared/domain"
)

// AggregateTypeItem is the aggregate type attached to agenda events.
const AggregateTypeItem = "SchedulableItem"

// Routing keys for agenda events.
const (
	RoutingKeyItemScheduled   = "agenda.item.scheduled"
	RoutingKeyItemUnscheduled = "agenda.item.unscheduled"
	RoutingKeyItemDeferred    = "agenda.item.deferred"
)

// AgendaRoutingKeys lists every key that invalidates a rendered agenda.
func AgendaRoutingKeys() []string {
	return []string{RoutingKeyItemScheduled, RoutingKeyItemUnscheduled, RoutingKeyItemDeferred}
}

// ItemScheduled is emitted when an item was placed on a slot.
type ItemScheduled struct {
	sharedDomain.BaseEvent
	ContextID       string `json:"context_id"`
	CalendarEventID string `json:"calendar_event_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Moved           bool   `json:"moved"`
}

// NewItemScheduled creates an ItemScheduled event.
func NewItemScheduled(contextID, itemID, eventID string, date string, iv Interval, moved bool, at time.Time) *ItemScheduled {
	return &ItemScheduled{
		BaseEvent:       sharedDomain.NewBaseEvent(itemID, AggregateTypeItem, RoutingKeyItemScheduled, at),
		ContextID:       contextID,
		CalendarEventID: eventID,
		Date:            date,
		StartTime:       iv.Start,
		EndTime:         iv.End,
		Moved:           moved,
	}
}

// ItemUnscheduled is emitted when a scheduled event was removed from an item.
type ItemUnscheduled struct {
	sharedDomain.BaseEvent
	ContextID       string `json:"context_id"`
	CalendarEventID string `json:"calendar_event_id"`
}

// NewItemUnscheduled creates an ItemUnscheduled event.
func NewItemUnscheduled(contextID, itemID, eventID string, at time.Time) *ItemUnscheduled {
	return &ItemUnscheduled{
		BaseEvent:       sharedDomain.NewBaseEvent(itemID, AggregateTypeItem, RoutingKeyItemUnscheduled, at),
		ContextID:       contextID,
		CalendarEventID: eventID,
	}
}

// ItemDeferred is emitted when an item's due date moved or it was archived.
type ItemDeferred struct {
	sharedDomain.BaseEvent
	ContextID string      `json:"context_id"`
	Option    DeferOption `json:"option"`
	DueDate   string      `json:"due_date,omitempty"`
}

// NewItemDeferred creates an ItemDeferred event.
func NewItemDeferred(contextID, itemID string, option DeferOption, dueDate string, at time.Time) *ItemDeferred {
	return &ItemDeferred{
		BaseEvent: sharedDomain.NewBaseEvent(itemID, AggregateTypeItem, RoutingKeyItemDeferred, at),
		ContextID: contextID,
		Option:    option,
		DueDate:   dueDate,
	}
}
