package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// QuickScheduleCommand schedules an item on the next half-hour slot.
type QuickScheduleCommand struct {
	ContextID string
	ItemID    string
}

// QuickScheduleHandler picks a slot from the clock and delegates to ScheduleItemHandler.
type QuickScheduleHandler struct {
	schedule *ScheduleItemHandler
	clock    domain.Clock
}

// NewQuickScheduleHandler creates a new QuickScheduleHandler.
func NewQuickScheduleHandler(schedule *ScheduleItemHandler, clock domain.Clock) *QuickScheduleHandler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &QuickScheduleHandler{schedule: schedule, clock: clock}
}

// Handle executes the QuickScheduleCommand.
func (h *QuickScheduleHandler) Handle(ctx context.Context, cmd QuickScheduleCommand) (*ScheduleItemResult, error) {
	date, start := QuickSlot(h.clock.Now())
	return h.schedule.Handle(ctx, ScheduleItemCommand{
		ContextID: cmd.ContextID,
		ItemID:    cmd.ItemID,
		Date:      date,
		StartTime: start,
	})
}

// QuickSlot returns the slot quick scheduling picks at now: half past the
// current hour while the minute is at most 30, otherwise the next full hour.
// Past 23:30 the slot is midnight of the following date.
func QuickSlot(now time.Time) (date, start string) {
	slot := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 30, 0, 0, now.Location())
	if now.Minute() > 30 {
		slot = slot.Add(30 * time.Minute)
	}
	return slot.Format(domain.DateLayout), slot.Format("15:04")
}
