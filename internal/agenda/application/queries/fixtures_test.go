package queries

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// 2025-03-05 08:00 UTC, a Wednesday.
var testNow = time.Date(2025, time.March, 5, 8, 0, 0, 0, time.UTC)

const testContext = "household-1"

type stubLoader struct {
	feeds     services.Feeds
	allCalls  int
	itemCalls int
	lastStart time.Time
	lastEnd   time.Time
}

func (s *stubLoader) LoadAll(_ context.Context, _ string, start, end time.Time) services.Feeds {
	s.allCalls++
	s.lastStart, s.lastEnd = start, end
	return s.feeds
}

func (s *stubLoader) LoadItems(_ context.Context, _ string) services.Feeds {
	s.itemCalls++
	return services.Feeds{Items: s.feeds.Items, Failed: s.feeds.Failed}
}

// steppingClock is a clock tests can move forward between calls.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *steppingClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key CacheKey) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key.String()]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key CacheKey, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key.String()] = value
	return nil
}

func newPipeline(loader FeedLoader) (Pipeline, *services.MemoryRefreshTrigger, *observability.InMemoryMetrics) {
	clock := domain.FixedClock{T: testNow}
	refresh := services.NewMemoryRefreshTrigger()
	metrics := observability.NewInMemoryMetrics()
	return Pipeline{
		Loader:      loader,
		Normalizer:  services.NewNormalizer(clock, nil, 30),
		Transitions: services.NewTransitionSynthesizer(clock, 10),
		Refresh:     refresh,
		Cache:       newMemoryCache(),
		Clock:       clock,
		Metrics:     metrics,
	}, refresh, metrics
}

func event(id, date, start, end, title string) domain.CalendarEvent {
	return domain.CalendarEvent{ID: id, ContextID: testContext, Title: title, Date: date, StartTime: start, EndTime: end}
}

func item(id, title, priority string, duration int, tags ...string) domain.SchedulableItem {
	return domain.SchedulableItem{
		ID:                id,
		ContextID:         testContext,
		Type:              domain.ItemTypeTask,
		Title:             title,
		Priority:          priority,
		EstimatedDuration: duration,
		Tags:              tags,
	}
}

func ids(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
