package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// DaysPerWeek is the length of the week view.
const DaysPerWeek = 7

// GetWeekAgendaQuery contains the parameters for rendering seven dates.
// An empty WeekStart means the Monday of the current week.
type GetWeekAgendaQuery struct {
	ContextID string
	WeekStart string
	Strategy  string
}

// GetWeekAgendaHandler handles the GetWeekAgendaQuery.
type GetWeekAgendaHandler struct {
	pipeline Pipeline
}

// NewGetWeekAgendaHandler creates a new GetWeekAgendaHandler.
func NewGetWeekAgendaHandler(pipeline Pipeline) *GetWeekAgendaHandler {
	return &GetWeekAgendaHandler{pipeline: pipeline.withDefaults()}
}

// Handle executes the GetWeekAgendaQuery.
func (h *GetWeekAgendaHandler) Handle(ctx context.Context, query GetWeekAgendaQuery) (*AgendaView, error) {
	if query.ContextID == "" {
		return nil, domain.NewValidationError("contextId", "household context is required")
	}
	strategy, err := services.ParseSortStrategy(query.Strategy)
	if err != nil {
		return nil, err
	}

	now := h.pipeline.Clock.Now()
	start := MondayOf(now)
	if query.WeekStart != "" {
		start, err = domain.ParseDate(query.WeekStart, now.Location())
		if err != nil {
			return nil, domain.NewValidationError("weekStart", err.Error())
		}
	}

	return h.pipeline.agenda(ctx, "week", query.ContextID, start, DaysPerWeek, strategy)
}

// MondayOf returns midnight of the Monday on or before t.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return domain.StartOfDay(t).AddDate(0, 0, -offset)
}
