package domain

import (
	"context"
	"time"
)

// EventRepository persists calendar events.
// Date bounds are inclusive "YYYY-MM-DD" strings.
type EventRepository interface {
	FindByDateRange(ctx context.Context, contextID, startDate, endDate string) ([]CalendarEvent, error)
	// FindByID returns ErrEventNotFound when no event matches.
	FindByID(ctx context.Context, id string) (*CalendarEvent, error)
	// FindBySourceItem returns nil without error when the item has no event.
	FindBySourceItem(ctx context.Context, contextID, itemID string) (*CalendarEvent, error)
	Create(ctx context.Context, event CalendarEvent) error
	Update(ctx context.Context, id string, patch EventPatch) error
	Delete(ctx context.Context, id string) error
}

// ItemRepository persists schedulable items.
type ItemRepository interface {
	// FindByID returns ErrItemNotFound when no item matches.
	FindByID(ctx context.Context, id string) (*SchedulableItem, error)
	FindSchedulable(ctx context.Context, contextID string) ([]SchedulableItem, error)
	FindWithTag(ctx context.Context, contextID, tag string) ([]SchedulableItem, error)
	FindUnscheduled(ctx context.Context, contextID string) ([]SchedulableItem, error)
	FindByType(ctx context.Context, contextID string, itemType ItemType) ([]SchedulableItem, error)
	Create(ctx context.Context, item SchedulableItem) error
	MarkScheduled(ctx context.Context, id, date, startTime string) error
	Update(ctx context.Context, id string, patch ItemPatch) error
}

// EventSource is an additional read-only calendar feed merged into the agenda.
type EventSource interface {
	Name() string
	EventsBetween(ctx context.Context, contextID string, start, end time.Time) ([]CalendarEvent, error)
}
