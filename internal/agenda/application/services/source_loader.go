package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// Source names used in logs, metrics and breaker names.
const (
	SourceCalendar    = "calendar"
	SourceSchedulable = "schedulable"
	SourceUnscheduled = "unscheduled"
	SourceInbox       = "inbox"
)

// LoaderConfig configures the per-source circuit breakers.
type LoaderConfig struct {
	// BreakerFailures is the number of consecutive failures that opens a breaker.
	BreakerFailures uint32
	// BreakerTimeout is how long an open breaker rejects calls.
	BreakerTimeout time.Duration
}

// DefaultLoaderConfig returns the default breaker settings.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		BreakerFailures: 3,
		BreakerTimeout:  30 * time.Second,
	}
}

// EventBatch is the events returned by one source.
type EventBatch struct {
	Source string
	Events []domain.CalendarEvent
}

// ItemBatch is the items returned by one source.
type ItemBatch struct {
	Source string
	Items  []domain.SchedulableItem
}

// Feeds is the joined result of a read-side fan-out.
type Feeds struct {
	Events []EventBatch
	Items  []ItemBatch
	// Failed lists the sources that were treated as empty.
	Failed []string
}

// SourceLoader fetches every read source concurrently. A failing source is
// logged and treated as empty so the others still render.
type SourceLoader struct {
	events   domain.EventRepository
	items    domain.ItemRepository
	external []domain.EventSource
	metrics  observability.Metrics
	logger   *slog.Logger
	config   LoaderConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewSourceLoader creates a source loader.
func NewSourceLoader(
	events domain.EventRepository,
	items domain.ItemRepository,
	external []domain.EventSource,
	metrics observability.Metrics,
	logger *slog.Logger,
	config LoaderConfig,
) *SourceLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = DefaultLoaderConfig().BreakerFailures
	}
	return &SourceLoader{
		events:   events,
		items:    items,
		external: external,
		metrics:  metrics,
		logger:   logger,
		config:   config,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

type fetch struct {
	source string
	events bool
	run    func(ctx context.Context) (any, error)
}

// LoadEvents fetches the calendar events between start and end (inclusive dates)
// from the repository and every external source.
func (l *SourceLoader) LoadEvents(ctx context.Context, contextID string, start, end time.Time) Feeds {
	return l.load(ctx, l.eventFetches(contextID, start, end))
}

// LoadItems fetches every unscheduled-item source. Items that already carry a
// slot are removed so they never appear twice.
func (l *SourceLoader) LoadItems(ctx context.Context, contextID string) Feeds {
	return l.load(ctx, l.itemFetches(contextID))
}

// LoadAll fetches events and items in one fan-out.
func (l *SourceLoader) LoadAll(ctx context.Context, contextID string, start, end time.Time) Feeds {
	return l.load(ctx, append(l.eventFetches(contextID, start, end), l.itemFetches(contextID)...))
}

func (l *SourceLoader) eventFetches(contextID string, start, end time.Time) []fetch {
	startDate, endDate := start.Format(domain.DateLayout), end.Format(domain.DateLayout)
	fetches := []fetch{{
		source: SourceCalendar,
		events: true,
		run: func(ctx context.Context) (any, error) {
			return l.events.FindByDateRange(ctx, contextID, startDate, endDate)
		},
	}}
	for _, src := range l.external {
		fetches = append(fetches, fetch{
			source: src.Name(),
			events: true,
			run: func(ctx context.Context) (any, error) {
				return src.EventsBetween(ctx, contextID, start, end)
			},
		})
	}
	return fetches
}

func (l *SourceLoader) itemFetches(contextID string) []fetch {
	fetches := []fetch{
		{source: SourceUnscheduled, run: func(ctx context.Context) (any, error) {
			return l.items.FindUnscheduled(ctx, contextID)
		}},
		{source: SourceSchedulable, run: func(ctx context.Context) (any, error) {
			return l.items.FindSchedulable(ctx, contextID)
		}},
	}
	for _, t := range []domain.ItemType{domain.ItemTypeGoal, domain.ItemTypeMilestone, domain.ItemTypeProject, domain.ItemTypeSOP} {
		fetches = append(fetches, fetch{source: string(t), run: func(ctx context.Context) (any, error) {
			return l.items.FindByType(ctx, contextID, t)
		}})
	}
	return append(fetches, fetch{source: SourceInbox, run: func(ctx context.Context) (any, error) {
		return l.items.FindWithTag(ctx, contextID, domain.TagInbox)
	}})
}

func (l *SourceLoader) load(ctx context.Context, fetches []fetch) Feeds {
	results := make([]any, len(fetches))
	errs := make([]error, len(fetches))

	var wg sync.WaitGroup
	for i, f := range fetches {
		wg.Add(1)
		go func(i int, f fetch) {
			defer wg.Done()
			results[i], errs[i] = l.execute(ctx, f)
		}(i, f)
	}
	wg.Wait()

	var feeds Feeds
	for i, f := range fetches {
		if errs[i] != nil {
			feeds.Failed = append(feeds.Failed, f.source)
			continue
		}
		switch v := results[i].(type) {
		case []domain.CalendarEvent:
			feeds.Events = append(feeds.Events, EventBatch{Source: f.source, Events: v})
		case []domain.SchedulableItem:
			feeds.Items = append(feeds.Items, ItemBatch{Source: f.source, Items: withoutScheduled(v)})
		}
	}
	return feeds
}

// execute runs one fetch behind its source's breaker and converts failures into FetchErrors.
func (l *SourceLoader) execute(ctx context.Context, f fetch) (any, error) {
	result, err := l.breaker(f.source).Execute(func() (any, error) {
		return f.run(ctx)
	})
	if err == nil {
		l.metrics.Counter(observability.MetricSourceFetched, 1, observability.T("source", f.source))
		return result, nil
	}

	fetchErr := &domain.FetchError{Source: f.source, Err: err}
	reason := "error"
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		reason = "circuit_open"
	}
	l.metrics.Counter(observability.MetricSourceFailed, 1, observability.T("source", f.source), observability.T("reason", reason))
	l.logger.WarnContext(ctx, "source fetch failed, treating as empty",
		"source", f.source,
		"reason", reason,
		"error", fetchErr,
	)
	return nil, fetchErr
}

func (l *SourceLoader) breaker(source string) *gobreaker.CircuitBreaker[any] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.breakers[source]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        source,
		MaxRequests: 1,
		Timeout:     l.config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= l.config.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.logger.Info("source breaker state changed",
				"source", name,
				"from", from.String(),
				"to", to.String(),
			)
			l.metrics.Counter(observability.MetricSourceBreakerTransitions, 1, observability.T("source", name), observability.T("state", to.String()))
		},
	}

	b := gobreaker.NewCircuitBreaker[any](settings)
	l.breakers[source] = b
	return b
}

// BreakerStates returns the state of every breaker created so far.
func (l *SourceLoader) BreakerStates() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	states := make(map[string]string, len(l.breakers))
	for name, b := range l.breakers {
		states[name] = b.State().String()
	}
	return states
}

func withoutScheduled(items []domain.SchedulableItem) []domain.SchedulableItem {
	out := make([]domain.SchedulableItem, 0, len(items))
	for _, item := range items {
		if item.IsScheduled() {
			continue
		}
		out = append(out, item)
	}
	return out
}
