package queries

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// FeedLoader fetches the raw read feeds.
type FeedLoader interface {
	LoadAll(ctx context.Context, contextID string, start, end time.Time) services.Feeds
	LoadItems(ctx context.Context, contextID string) services.Feeds
}

// Pipeline bundles the read path shared by the agenda queries:
// loader, normalizer, merge/sort, transitions and the snapshot cache.
// Refresh and Cache may be nil.
type Pipeline struct {
	Loader      FeedLoader
	Normalizer  *services.Normalizer
	Transitions *services.TransitionSynthesizer
	Refresh     services.RefreshTrigger
	Cache       AgendaCache
	Clock       domain.Clock
	Metrics     observability.Metrics
	Logger      *slog.Logger

	builder *services.AgendaBuilder
}

func (p Pipeline) withDefaults() Pipeline {
	if p.Clock == nil {
		p.Clock = domain.SystemClock{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Metrics == nil {
		p.Metrics = observability.NoopMetrics{}
	}
	if p.Cache == nil {
		p.Cache = NoopCache{}
	}
	if p.Normalizer == nil {
		p.Normalizer = services.NewNormalizer(p.Clock, p.Logger, 0)
	}
	if p.Transitions == nil {
		p.Transitions = services.NewTransitionSynthesizer(p.Clock, services.DefaultTransitionThreshold)
	}
	p.builder = services.NewAgendaBuilder()
	return p
}

func (p Pipeline) generation(ctx context.Context, contextID string) uint64 {
	if p.Refresh == nil {
		return 0
	}
	gen, err := p.Refresh.Generation(ctx, contextID)
	if err != nil {
		p.Logger.WarnContext(ctx, "refresh generation unavailable", "context_id", contextID, "error", err)
		return 0
	}
	return gen
}

// cached decodes a snapshot into dst. Cache failures count as misses.
func (p Pipeline) cached(ctx context.Context, key CacheKey, dst any) bool {
	data, ok, err := p.Cache.Get(ctx, key)
	if err != nil {
		p.Logger.WarnContext(ctx, "agenda cache read failed", "key", key.String(), "error", err)
	}
	if ok && err == nil {
		if err := json.Unmarshal(data, dst); err == nil {
			p.Metrics.Counter(observability.MetricAgendaCacheHits, 1, observability.T("view", key.View))
			return true
		}
	}
	p.Metrics.Counter(observability.MetricAgendaCacheMisses, 1, observability.T("view", key.View))
	return false
}

func (p Pipeline) store(ctx context.Context, key CacheKey, value any) {
	data, err := json.Marshal(value)
	if err == nil {
		err = p.Cache.Set(ctx, key, data)
	}
	if err != nil {
		p.Logger.WarnContext(ctx, "agenda cache write failed", "key", key.String(), "error", err)
	}
}

// scheduledEntries normalizes every event batch, keeps the entries dated
// within [startDate, endDate] and scores harmony across all of them.
func (p Pipeline) scheduledEntries(ctx context.Context, feeds services.Feeds, startDate, endDate string) []domain.Entry {
	var entries []domain.Entry
	for _, batch := range feeds.Events {
		for _, e := range p.Normalizer.NormalizeEvents(ctx, batch.Source, batch.Events) {
			if e.Date < startDate || e.Date > endDate {
				continue
			}
			entries = append(entries, e)
		}
	}
	return services.ScoreHarmony(entries)
}

// unscheduledEntries normalizes every item batch and drops archived items.
func (p Pipeline) unscheduledEntries(ctx context.Context, feeds services.Feeds) []domain.Entry {
	var entries []domain.Entry
	for _, batch := range feeds.Items {
		for _, e := range p.Normalizer.NormalizeUnscheduled(ctx, batch.Source, batch.Items) {
			if e.HasTag(domain.TagArchived) {
				continue
			}
			entries = append(entries, e)
		}
	}
	return entries
}

// agenda runs the full read path over days consecutive dates from start.
func (p Pipeline) agenda(ctx context.Context, view, contextID string, start time.Time, days int, strategy services.SortStrategy) (*AgendaView, error) {
	start = domain.StartOfDay(start)
	end := start.AddDate(0, 0, days-1)
	startDate, endDate := start.Format(domain.DateLayout), end.Format(domain.DateLayout)

	gen := p.generation(ctx, contextID)
	key := CacheKey{ContextID: contextID, View: view + "-" + string(strategy), Date: startDate, Generation: gen}

	var snapshot AgendaView
	if p.cached(ctx, key, &snapshot) {
		snapshot.Cached = true
		snapshot.Entries = withStatuses(snapshot.Entries, p.Clock.Now())
		return &snapshot, nil
	}

	return observability.Observe(ctx, p.Metrics, "agenda."+view, func(ctx context.Context) (*AgendaView, error) {
		feeds := p.Loader.LoadAll(ctx, contextID, start, end)

		entries := p.builder.Build(p.scheduledEntries(ctx, feeds, startDate, endDate), p.unscheduledEntries(ctx, feeds), strategy)
		if strategy == services.SortChronological {
			entries = p.Transitions.Insert(entries)
		}

		result := &AgendaView{
			ContextID:  contextID,
			View:       view,
			StartDate:  startDate,
			EndDate:    endDate,
			Strategy:   strategy,
			Entries:    entries,
			Failed:     feeds.Failed,
			Generation: gen,
		}
		p.store(ctx, key, result)
		p.Metrics.Counter(observability.MetricAgendaBuilt, 1, observability.T("view", view))
		p.Logger.DebugContext(ctx, "agenda built",
			"context_id", contextID,
			"view", view,
			"start", startDate,
			"entries", len(entries),
			"failed_sources", len(feeds.Failed),
		)
		return result, nil
	})
}

// withStatuses returns a copy of entries with Status derived at now. Snapshots
// are cached per generation, not per minute, so statuses are never served
// from the cache.
func withStatuses(entries []domain.Entry, now time.Time) []domain.Entry {
	out := make([]domain.Entry, len(entries))
	for i, e := range entries {
		e.Status = e.StatusAt(now)
		out[i] = e
	}
	return out
}
