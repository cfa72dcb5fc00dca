package queries

import (
	"context"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// GetDayAgendaQuery contains the parameters for rendering one date.
// An empty Date means today; an empty Strategy means chronological.
type GetDayAgendaQuery struct {
	ContextID string
	Date      string
	Strategy  string
}

// GetDayAgendaHandler handles the GetDayAgendaQuery.
type GetDayAgendaHandler struct {
	pipeline Pipeline
}

// NewGetDayAgendaHandler creates a new GetDayAgendaHandler.
func NewGetDayAgendaHandler(pipeline Pipeline) *GetDayAgendaHandler {
	return &GetDayAgendaHandler{pipeline: pipeline.withDefaults()}
}

// Handle executes the GetDayAgendaQuery.
func (h *GetDayAgendaHandler) Handle(ctx context.Context, query GetDayAgendaQuery) (*AgendaView, error) {
	if query.ContextID == "" {
		return nil, domain.NewValidationError("contextId", "household context is required")
	}
	strategy, err := services.ParseSortStrategy(query.Strategy)
	if err != nil {
		return nil, err
	}

	day := h.pipeline.Clock.Now()
	if query.Date != "" {
		day, err = domain.ParseDate(query.Date, day.Location())
		if err != nil {
			return nil, domain.NewValidationError("date", err.Error())
		}
	}

	return h.pipeline.agenda(ctx, "day", query.ContextID, day, 1, strategy)
}
