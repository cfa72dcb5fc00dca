package commands

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/google/uuid"
)

// CreateItemCommand contains the data needed to add a schedulable item.
type CreateItemCommand struct {
	ContextID         string
	Type              string
	Title             string
	Description       string
	EstimatedDuration int
	Priority          string
	DueDate           string
	Tags              []string
	AssignedTo        string
}

// CreateItemResult contains the result of adding an item.
type CreateItemResult struct {
	ItemID string
}

// CreateItemHandler handles the CreateItemCommand.
type CreateItemHandler struct {
	itemRepo domain.ItemRepository
	support  Support
}

// NewCreateItemHandler creates a new CreateItemHandler.
func NewCreateItemHandler(itemRepo domain.ItemRepository, support Support) *CreateItemHandler {
	return &CreateItemHandler{itemRepo: itemRepo, support: support.withDefaults()}
}

// Handle executes the CreateItemCommand.
func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (*CreateItemResult, error) {
	if err := requireContext(cmd.ContextID); err != nil {
		return nil, err
	}

	itemType := domain.ItemTypeTask
	if cmd.Type != "" {
		t, err := domain.ParseItemType(cmd.Type)
		if err != nil {
			return nil, err
		}
		itemType = t
	}

	priority := domain.PriorityMedium
	if cmd.Priority != "" {
		p, err := domain.ParsePriority(cmd.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	now := h.support.Clock.Now()
	dueDate := strings.TrimSpace(cmd.DueDate)
	if dueDate != "" {
		if _, err := domain.ParseDueDate(dueDate, now.Location()); err != nil {
			return nil, domain.NewValidationError("dueDate", err.Error())
		}
	}

	var tags []string
	for _, tag := range cmd.Tags {
		tags = domain.AddTag(tags, tag)
	}

	item := domain.SchedulableItem{
		ID:                uuid.NewString(),
		ContextID:         cmd.ContextID,
		Type:              itemType,
		Title:             strings.TrimSpace(cmd.Title),
		Description:       cmd.Description,
		EstimatedDuration: cmd.EstimatedDuration,
		Priority:          string(priority),
		DueDate:           dueDate,
		Tags:              tags,
		AssignedTo:        cmd.AssignedTo,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := h.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	h.support.bump(ctx, cmd.ContextID)
	h.support.Logger.InfoContext(ctx, "item created",
		"context_id", cmd.ContextID,
		"item_id", item.ID,
		"type", item.Type,
	)
	return &CreateItemResult{ItemID: item.ID}, nil
}
