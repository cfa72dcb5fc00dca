package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	sharedApplication "github.com/felixgeelhaar/homebase/internal/shared/application"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// DeferItemCommand pushes an item's due date along the defer menu or archives it.
type DeferItemCommand struct {
	ContextID string
	ItemID    string
	Option    domain.DeferOption
}

// DeferItemResult reports the item's new due date or tags.
type DeferItemResult struct {
	ItemID  string
	Option  domain.DeferOption
	DueDate string
	Tags    []string
}

// DeferItemHandler handles the DeferItemCommand.
type DeferItemHandler struct {
	itemRepo domain.ItemRepository
	support  Support
}

// NewDeferItemHandler creates a new DeferItemHandler.
func NewDeferItemHandler(itemRepo domain.ItemRepository, support Support) *DeferItemHandler {
	return &DeferItemHandler{itemRepo: itemRepo, support: support.withDefaults()}
}

// Handle executes the DeferItemCommand. Archiving leaves the due date untouched
// and adds the archived tag at most once.
func (h *DeferItemHandler) Handle(ctx context.Context, cmd DeferItemCommand) (*DeferItemResult, error) {
	if err := requireContext(cmd.ContextID); err != nil {
		return nil, err
	}
	option, err := domain.ParseDeferOption(string(cmd.Option))
	if err != nil {
		return nil, err
	}
	now := h.support.Clock.Now()

	result, err := sharedApplication.Transactional(ctx, h.support.UoW, func(txCtx context.Context) (*DeferItemResult, error) {
		item, err := h.itemRepo.FindByID(txCtx, cmd.ItemID)
		if err != nil {
			return nil, err
		}
		if item.ContextID != "" && item.ContextID != cmd.ContextID {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, cmd.ItemID)
		}

		result := &DeferItemResult{ItemID: item.ID, Option: option, DueDate: item.DueDate, Tags: item.Clone().Tags}

		var patch domain.ItemPatch
		if due, ok := option.ResolveDueDate(now); ok {
			result.DueDate = due.Format(time.RFC3339)
			patch.DueDate = &result.DueDate
		} else {
			result.Tags = domain.AddTag(item.Tags, domain.TagArchived)
			patch.Tags = &result.Tags
		}

		if err := h.itemRepo.Update(txCtx, item.ID, patch); err != nil {
			return nil, err
		}

		event := domain.NewItemDeferred(cmd.ContextID, item.ID, option, result.DueDate, now)
		return result, h.support.recordEvents(txCtx, cmd.ContextID, event)
	})
	if err != nil {
		return nil, err
	}

	h.support.bump(ctx, cmd.ContextID)
	h.support.Metrics.Counter(observability.MetricItemsDeferred, 1, observability.T("option", string(option)))
	h.support.Logger.InfoContext(ctx, "item deferred",
		"context_id", cmd.ContextID,
		"item_id", result.ItemID,
		"option", option,
		"due_date", result.DueDate,
	)
	return result, nil
}
