package queries

import (
	"context"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// GetSidebarQuery contains the sidebar filters.
type GetSidebarQuery struct {
	ContextID string
	Filters   services.Filters
}

// SidebarView is the ranked, filtered unscheduled feed.
type SidebarView struct {
	ContextID  string           `json:"contextId"`
	Sidebar    services.Sidebar `json:"sidebar"`
	Failed     []string         `json:"failedSources,omitempty"`
	Generation uint64           `json:"generation"`
	Cached     bool             `json:"-"`
}

// rankedFeed is the cached, unfiltered sidebar input.
type rankedFeed struct {
	Entries []domain.Entry `json:"entries"`
	Failed  []string       `json:"failedSources,omitempty"`
}

// GetSidebarHandler handles the GetSidebarQuery. The intelligent ranking is
// cached per generation; filters are applied on every call.
type GetSidebarHandler struct {
	pipeline Pipeline
}

// NewGetSidebarHandler creates a new GetSidebarHandler.
func NewGetSidebarHandler(pipeline Pipeline) *GetSidebarHandler {
	return &GetSidebarHandler{pipeline: pipeline.withDefaults()}
}

// Handle executes the GetSidebarQuery.
func (h *GetSidebarHandler) Handle(ctx context.Context, query GetSidebarQuery) (*SidebarView, error) {
	if query.ContextID == "" {
		return nil, domain.NewValidationError("contextId", "household context is required")
	}
	if err := query.Filters.Validate(); err != nil {
		return nil, err
	}

	p := h.pipeline
	now := p.Clock.Now()
	gen := p.generation(ctx, query.ContextID)
	key := CacheKey{ContextID: query.ContextID, View: "sidebar", Date: now.Format(domain.DateLayout), Generation: gen}

	var feed rankedFeed
	cached := p.cached(ctx, key, &feed)
	if !cached {
		feeds := p.Loader.LoadItems(ctx, query.ContextID)
		feed = rankedFeed{
			Entries: p.builder.Build(nil, p.unscheduledEntries(ctx, feeds), services.SortIntelligent),
			Failed:  feeds.Failed,
		}
		p.store(ctx, key, feed)
		p.Metrics.Counter(observability.MetricAgendaBuilt, 1, observability.T("view", "sidebar"))
	}

	filtered, err := services.ApplyFilters(withStatuses(feed.Entries, now), query.Filters, now)
	if err != nil {
		return nil, err
	}

	return &SidebarView{
		ContextID:  query.ContextID,
		Sidebar:    services.SplitSidebar(filtered),
		Failed:     feed.Failed,
		Generation: gen,
		Cached:     cached,
	}, nil
}
