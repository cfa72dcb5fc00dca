package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	sharedApplication "github.com/felixgeelhaar/homebase/internal/shared/application"
	"github.com/felixgeelhaar/homebase/pkg/observability"
	"github.com/google/uuid"
)

// ScheduleItemCommand drops an unscheduled item onto a slot.
type ScheduleItemCommand struct {
	ContextID string
	ItemID    string
	Date      string
	StartTime string
}

// ScheduleItemResult identifies the event backing the slot.
type ScheduleItemResult struct {
	EventID  string
	SourceID string
	Date     string
	Interval domain.Interval
	State    domain.ScheduleState
	// Moved is set when an existing event for the item was moved to the new slot.
	Moved bool
	// Unchanged is set when the item already occupied exactly this slot.
	Unchanged bool
}

// ScheduleItemHandler creates the calendar event for an item and marks the
// item scheduled. Both writes share one unit of work; without a transactional
// unit of work a failed second write is compensated.
type ScheduleItemHandler struct {
	eventRepo       domain.EventRepository
	itemRepo        domain.ItemRepository
	support         Support
	defaultDuration int
}

// NewScheduleItemHandler creates a new ScheduleItemHandler. A non-positive
// defaultDuration falls back to 30 minutes.
func NewScheduleItemHandler(eventRepo domain.EventRepository, itemRepo domain.ItemRepository, support Support, defaultDuration int) *ScheduleItemHandler {
	if defaultDuration <= 0 {
		defaultDuration = 30
	}
	return &ScheduleItemHandler{
		eventRepo:       eventRepo,
		itemRepo:        itemRepo,
		support:         support.withDefaults(),
		defaultDuration: defaultDuration,
	}
}

// scheduleAttempt tracks the writes already issued so they can be undone.
type scheduleAttempt struct {
	item     domain.SchedulableItem
	eventID  string
	created  bool
	previous *domain.CalendarEvent
	marked   bool
}

// Handle executes the ScheduleItemCommand.
func (h *ScheduleItemHandler) Handle(ctx context.Context, cmd ScheduleItemCommand) (*ScheduleItemResult, error) {
	if err := requireContext(cmd.ContextID); err != nil {
		return nil, err
	}
	if cmd.ItemID == "" {
		return nil, domain.NewValidationError("itemId", "item id is required")
	}
	now := h.support.Clock.Now()
	day, err := domain.ParseDate(cmd.Date, now.Location())
	if err != nil {
		return nil, domain.NewValidationError("date", err.Error())
	}
	startMinutes, err := domain.ToMinutes(cmd.StartTime)
	if err != nil {
		return nil, domain.NewValidationError("startTime", err.Error())
	}
	date := day.Format(domain.DateLayout)
	start := domain.FormatMinutes(startMinutes)

	attempt := &scheduleAttempt{}
	result, err := sharedApplication.Transactional(ctx, h.support.UoW, func(txCtx context.Context) (*ScheduleItemResult, error) {
		item, err := h.itemRepo.FindByID(txCtx, cmd.ItemID)
		if err != nil {
			return nil, err
		}
		if item.ContextID != "" && item.ContextID != cmd.ContextID {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, cmd.ItemID)
		}
		attempt.item = item.Clone()

		iv, duration, err := h.slot(*item, start)
		if err != nil {
			return nil, err
		}

		existing, err := h.eventRepo.FindBySourceItem(txCtx, cmd.ContextID, item.ID)
		if err != nil {
			return nil, err
		}

		if existing != nil && existing.Date == date && existing.StartTime == iv.Start {
			if item.ScheduledDate != date || item.ScheduledTime != iv.Start {
				if err := h.itemRepo.MarkScheduled(txCtx, item.ID, date, iv.Start); err != nil {
					return nil, &domain.ScheduleError{State: domain.ScheduleEventCreated, Err: err}
				}
			}
			return &ScheduleItemResult{
				EventID:   existing.ID,
				SourceID:  item.ID,
				Date:      date,
				Interval:  domain.Interval{Start: existing.StartTime, End: existing.EndTime},
				State:     domain.ScheduleDone,
				Unchanged: true,
			}, nil
		}

		if existing != nil {
			previous := existing.Clone()
			patch := domain.EventPatch{Date: &date, StartTime: &iv.Start, EndTime: &iv.End, Duration: &duration}
			if err := h.eventRepo.Update(txCtx, existing.ID, patch); err != nil {
				return nil, &domain.ScheduleError{State: domain.ScheduleRequested, Err: err}
			}
			attempt.eventID = existing.ID
			attempt.previous = &previous
		} else {
			event := h.buildEvent(cmd.ContextID, *item, date, iv, duration)
			if err := h.eventRepo.Create(txCtx, event); err != nil {
				return nil, &domain.ScheduleError{State: domain.ScheduleRequested, Err: err}
			}
			attempt.eventID = event.ID
			attempt.created = true
		}

		if err := h.itemRepo.MarkScheduled(txCtx, item.ID, date, iv.Start); err != nil {
			return nil, &domain.ScheduleError{State: domain.ScheduleEventCreated, EventID: attempt.eventID, Err: err}
		}
		attempt.marked = true

		moved := attempt.previous != nil
		event := domain.NewItemScheduled(cmd.ContextID, item.ID, attempt.eventID, date, iv, moved, now)
		if err := h.support.recordEvents(txCtx, cmd.ContextID, event); err != nil {
			return nil, &domain.ScheduleError{State: domain.ScheduleSourceMarkedScheduled, EventID: attempt.eventID, Err: err}
		}

		return &ScheduleItemResult{
			EventID:  attempt.eventID,
			SourceID: item.ID,
			Date:     date,
			Interval: iv,
			State:    domain.ScheduleDone,
			Moved:    moved,
		}, nil
	})
	if errors.Is(err, sharedApplication.ErrCommitFailed) && attempt.eventID != "" {
		err = &domain.ScheduleError{State: domain.ScheduleSourceMarkedScheduled, EventID: attempt.eventID, Err: err}
	}
	if err != nil {
		return nil, h.fail(ctx, cmd, attempt, err)
	}

	if !result.Unchanged {
		h.support.bump(ctx, cmd.ContextID)
	}
	h.support.Metrics.Counter(observability.MetricItemsScheduled, 1, observability.T("moved", fmt.Sprint(result.Moved)))
	h.support.Logger.InfoContext(ctx, "item scheduled",
		"context_id", cmd.ContextID,
		"item_id", result.SourceID,
		"event_id", result.EventID,
		"date", result.Date,
		"start", result.Interval.Start,
		"end", result.Interval.End,
		"moved", result.Moved,
		"unchanged", result.Unchanged,
	)

	return result, nil
}

// slot derives the interval for item starting at start.
func (h *ScheduleItemHandler) slot(item domain.SchedulableItem, start string) (domain.Interval, int, error) {
	duration := item.EstimatedDuration
	if duration <= 0 {
		duration = h.defaultDuration
	}
	end, err := domain.AddMinutes(start, duration)
	if errors.Is(err, domain.ErrTimeOutOfDay) {
		return domain.Interval{}, 0, domain.NewValidationError("startTime",
			fmt.Sprintf("%s plus %d minutes runs past midnight", start, duration))
	}
	if err != nil {
		return domain.Interval{}, 0, err
	}
	return domain.Interval{Start: start, End: end}, duration, nil
}

func (h *ScheduleItemHandler) buildEvent(contextID string, item domain.SchedulableItem, date string, iv domain.Interval, duration int) domain.CalendarEvent {
	now := h.support.Clock.Now()
	priority := domain.PriorityOrDefault(item.Priority)
	return domain.CalendarEvent{
		ID:           uuid.NewString(),
		ContextID:    contextID,
		Title:        item.Title,
		Description:  item.Description,
		Date:         date,
		StartTime:    iv.Start,
		EndTime:      iv.End,
		Duration:     duration,
		Type:         string(item.Type),
		Color:        priority.Color(),
		Domain:       string(domain.ClassifyTaskDomain(item.Tags)),
		Priority:     string(priority),
		Tags:         item.Clone().Tags,
		AssignedTo:   item.AssignedTo,
		SourceItemID: item.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// fail settles a failed attempt. Write failures surface as ScheduleError.
// Inside a unit of work they count as compensated once the rollback succeeded;
// a failed commit leaves the outcome unknown. Without a unit of work the
// writes are undone here.
func (h *ScheduleItemHandler) fail(ctx context.Context, cmd ScheduleItemCommand, attempt *scheduleAttempt, err error) error {
	var scheduleErr *domain.ScheduleError
	if !errors.As(err, &scheduleErr) {
		return err
	}

	h.support.Metrics.Counter(observability.MetricScheduleFailures, 1, observability.T("state", string(scheduleErr.State)))

	var rbErr *sharedApplication.RollbackError
	rolledBack := !errors.As(err, &rbErr)
	if !rolledBack {
		scheduleErr.Err = errors.Join(scheduleErr.Err, rbErr)
	}

	switch {
	case scheduleErr.EventID == "":
	case h.support.UoW != nil:
		scheduleErr.Compensated = rolledBack && !errors.Is(scheduleErr.Err, sharedApplication.ErrCommitFailed)
	default:
		if compErr := h.compensate(ctx, attempt); compErr != nil {
			h.support.Logger.ErrorContext(ctx, "schedule compensation failed",
				"context_id", cmd.ContextID,
				"item_id", cmd.ItemID,
				"event_id", scheduleErr.EventID,
				"error", compErr,
			)
		} else {
			scheduleErr.Compensated = true
		}
	}

	h.support.Logger.ErrorContext(ctx, "item scheduling failed",
		"context_id", cmd.ContextID,
		"item_id", cmd.ItemID,
		"state", scheduleErr.State,
		"dangling", scheduleErr.Dangling(),
		"error", scheduleErr.Err,
	)
	return scheduleErr
}

// compensate undoes the writes recorded in attempt, newest first.
func (h *ScheduleItemHandler) compensate(ctx context.Context, attempt *scheduleAttempt) error {
	var errs []error
	if attempt.marked {
		patch := domain.ItemPatch{
			ScheduledDate: &attempt.item.ScheduledDate,
			ScheduledTime: &attempt.item.ScheduledTime,
		}
		if err := h.itemRepo.Update(ctx, attempt.item.ID, patch); err != nil {
			errs = append(errs, fmt.Errorf("restore item schedule: %w", err))
		}
	}
	switch {
	case attempt.created:
		if err := h.eventRepo.Delete(ctx, attempt.eventID); err != nil {
			errs = append(errs, fmt.Errorf("delete event: %w", err))
		}
	case attempt.previous != nil:
		prev := attempt.previous
		patch := domain.EventPatch{Date: &prev.Date, StartTime: &prev.StartTime, EndTime: &prev.EndTime, Duration: &prev.Duration}
		if err := h.eventRepo.Update(ctx, attempt.eventID, patch); err != nil {
			errs = append(errs, fmt.Errorf("restore event slot: %w", err))
		}
	}
	return errors.Join(errs...)
}
