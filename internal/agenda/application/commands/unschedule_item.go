package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	sharedApplication "github.com/felixgeelhaar/homebase/internal/shared/application"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// UnscheduleItemCommand removes a scheduled event. Either EventID or ItemID
// identifies it; EventID wins when both are set.
type UnscheduleItemCommand struct {
	ContextID string
	EventID   string
	ItemID    string
}

// UnscheduleItemResult identifies what was removed.
type UnscheduleItemResult struct {
	EventID  string
	SourceID string
}

// UnscheduleItemHandler deletes an event and clears the slot on its source
// item in one unit of work.
type UnscheduleItemHandler struct {
	eventRepo domain.EventRepository
	itemRepo  domain.ItemRepository
	support   Support
}

// NewUnscheduleItemHandler creates a new UnscheduleItemHandler.
func NewUnscheduleItemHandler(eventRepo domain.EventRepository, itemRepo domain.ItemRepository, support Support) *UnscheduleItemHandler {
	return &UnscheduleItemHandler{eventRepo: eventRepo, itemRepo: itemRepo, support: support.withDefaults()}
}

// Handle executes the UnscheduleItemCommand.
func (h *UnscheduleItemHandler) Handle(ctx context.Context, cmd UnscheduleItemCommand) (*UnscheduleItemResult, error) {
	if err := requireContext(cmd.ContextID); err != nil {
		return nil, err
	}
	if cmd.EventID == "" && cmd.ItemID == "" {
		return nil, domain.NewValidationError("eventId", "event id or item id is required")
	}

	result, err := sharedApplication.Transactional(ctx, h.support.UoW, func(txCtx context.Context) (*UnscheduleItemResult, error) {
		event, err := h.findEvent(txCtx, cmd)
		if err != nil {
			return nil, err
		}

		if event.SourceItemID != "" {
			cleared := ""
			patch := domain.ItemPatch{ScheduledDate: &cleared, ScheduledTime: &cleared}
			if err := h.itemRepo.Update(txCtx, event.SourceItemID, patch); err != nil {
				return nil, fmt.Errorf("clear item schedule: %w", err)
			}
		}
		if err := h.eventRepo.Delete(txCtx, event.ID); err != nil {
			return nil, fmt.Errorf("delete event: %w", err)
		}

		aggregateID := event.SourceItemID
		if aggregateID == "" {
			aggregateID = event.ID
		}
		unscheduled := domain.NewItemUnscheduled(cmd.ContextID, aggregateID, event.ID, h.support.Clock.Now())
		if err := h.support.recordEvents(txCtx, cmd.ContextID, unscheduled); err != nil {
			return nil, err
		}
		return &UnscheduleItemResult{EventID: event.ID, SourceID: event.SourceItemID}, nil
	})
	if err != nil {
		return nil, err
	}

	h.support.bump(ctx, cmd.ContextID)
	h.support.Metrics.Counter(observability.MetricItemsUnscheduled, 1)
	h.support.Logger.InfoContext(ctx, "item unscheduled",
		"context_id", cmd.ContextID,
		"event_id", result.EventID,
		"item_id", result.SourceID,
	)
	return result, nil
}

func (h *UnscheduleItemHandler) findEvent(ctx context.Context, cmd UnscheduleItemCommand) (*domain.CalendarEvent, error) {
	if cmd.EventID != "" {
		event, err := h.eventRepo.FindByID(ctx, cmd.EventID)
		if err != nil {
			return nil, err
		}
		if event.ContextID != "" && event.ContextID != cmd.ContextID {
			return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, cmd.EventID)
		}
		return event, nil
	}

	event, err := h.eventRepo.FindBySourceItem(ctx, cmd.ContextID, cmd.ItemID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: no event for item %s", domain.ErrEventNotFound, cmd.ItemID)
	}
	return event, nil
}
