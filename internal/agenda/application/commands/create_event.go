package commands

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/google/uuid"
)

// CreateEventCommand contains the data needed to add a calendar event.
// Without EndTime the event lasts Duration minutes, or the default duration.
type CreateEventCommand struct {
	ContextID   string
	Title       string
	Description string
	Date        string
	StartTime   string
	EndTime     string
	Duration    int
	Type        string
	Priority    string
	Tags        []string
	AssignedTo  string
}

// CreateEventResult contains the result of adding an event.
type CreateEventResult struct {
	EventID  string
	Interval domain.Interval
}

// CreateEventHandler handles the CreateEventCommand.
type CreateEventHandler struct {
	eventRepo       domain.EventRepository
	support         Support
	defaultDuration int
}

// NewCreateEventHandler creates a new CreateEventHandler.
func NewCreateEventHandler(eventRepo domain.EventRepository, support Support, defaultDuration int) *CreateEventHandler {
	if defaultDuration <= 0 {
		defaultDuration = 30
	}
	return &CreateEventHandler{eventRepo: eventRepo, support: support.withDefaults(), defaultDuration: defaultDuration}
}

// Handle executes the CreateEventCommand.
func (h *CreateEventHandler) Handle(ctx context.Context, cmd CreateEventCommand) (*CreateEventResult, error) {
	if err := requireContext(cmd.ContextID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, domain.NewValidationError("title", "event title is required")
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
	iv := domain.Interval{Start: domain.FormatMinutes(startMinutes)}

	duration := cmd.Duration
	if cmd.EndTime != "" {
		endMinutes, err := domain.ToMinutes(cmd.EndTime)
		if err != nil {
			return nil, domain.NewValidationError("endTime", err.Error())
		}
		iv.End = domain.FormatMinutes(endMinutes)
		duration = endMinutes - startMinutes
	} else {
		if duration <= 0 {
			duration = h.defaultDuration
		}
		iv.End, err = domain.AddMinutes(iv.Start, duration)
		if err != nil {
			return nil, domain.NewValidationError("duration", err.Error())
		}
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	priority := domain.PriorityOrDefault(cmd.Priority)
	var tags []string
	for _, tag := range cmd.Tags {
		tags = domain.AddTag(tags, tag)
	}

	event := domain.CalendarEvent{
		ID:          uuid.NewString(),
		ContextID:   cmd.ContextID,
		Title:       title,
		Description: cmd.Description,
		Date:        day.Format(domain.DateLayout),
		StartTime:   iv.Start,
		EndTime:     iv.End,
		Duration:    duration,
		Type:        cmd.Type,
		Color:       priority.Color(),
		Domain:      string(domain.ClassifyEventDomain(title)),
		Priority:    string(priority),
		Tags:        tags,
		AssignedTo:  cmd.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if event.Type == "" {
		event.Type = "event"
	}

	if err := h.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	h.support.bump(ctx, cmd.ContextID)
	h.support.Logger.InfoContext(ctx, "event created",
		"context_id", cmd.ContextID,
		"event_id", event.ID,
		"date", event.Date,
		"start", iv.Start,
	)
	return &CreateEventResult{EventID: event.ID, Interval: iv}, nil
}
