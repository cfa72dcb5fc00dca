package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubEventSource struct {
	name   string
	events []domain.CalendarEvent
	err    error
	calls  int
}

func (s *stubEventSource) Name() string { return s.name }

func (s *stubEventSource) EventsBetween(_ context.Context, _ string, _, _ time.Time) ([]domain.CalendarEvent, error) {
	s.calls++
	return s.events, s.err
}

func expectItemSources(items *mockItemRepo, ctxID string, unscheduled []domain.SchedulableItem, unscheduledErr error) {
	items.On("FindUnscheduled", mock.Anything, ctxID).Return(unscheduled, unscheduledErr)
	items.On("FindSchedulable", mock.Anything, ctxID).Return([]domain.SchedulableItem{
		{ID: "sched", Type: domain.ItemTypeTask, Title: "Already placed", ScheduledDate: testDate, ScheduledTime: "09:00"},
		{ID: "free", Type: domain.ItemTypeTask, Title: "Free"},
	}, nil)
	for _, t := range []domain.ItemType{domain.ItemTypeGoal, domain.ItemTypeMilestone, domain.ItemTypeProject, domain.ItemTypeSOP} {
		items.On("FindByType", mock.Anything, ctxID, t).Return([]domain.SchedulableItem{}, nil)
	}
	items.On("FindWithTag", mock.Anything, ctxID, domain.TagInbox).Return([]domain.SchedulableItem{}, nil)
}

func TestSourceLoader_LoadAll(t *testing.T) {
	ctx := context.Background()
	events := new(mockEventRepo)
	items := new(mockItemRepo)
	external := &stubEventSource{name: "caldav", events: []domain.CalendarEvent{{ID: "ext-1"}}}
	metrics := observability.NewInMemoryMetrics()

	events.On("FindByDateRange", mock.Anything, "house", "2025-03-05", "2025-03-11").
		Return([]domain.CalendarEvent{{ID: "evt-1"}}, nil)
	expectItemSources(items, "house", []domain.SchedulableItem{{ID: "u1", Type: domain.ItemTypeTask, Title: "u1"}}, nil)

	loader := NewSourceLoader(events, items, []domain.EventSource{external}, metrics, nil, DefaultLoaderConfig())
	start := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	feeds := loader.LoadAll(ctx, "house", start, start.AddDate(0, 0, 6))

	assert.Empty(t, feeds.Failed)
	require.Len(t, feeds.Events, 2)
	assert.Equal(t, SourceCalendar, feeds.Events[0].Source)
	assert.Equal(t, "caldav", feeds.Events[1].Source)
	require.Len(t, feeds.Items, 7)
	assert.Equal(t, SourceUnscheduled, feeds.Items[0].Source)
	assert.Equal(t, SourceSchedulable, feeds.Items[1].Source)
	require.Len(t, feeds.Items[1].Items, 1)
	assert.Equal(t, "free", feeds.Items[1].Items[0].ID)
	assert.Equal(t, int64(1), metrics.GetCounter("agenda.source.fetched", observability.T("source", SourceCalendar)))

	events.AssertExpectations(t)
	items.AssertExpectations(t)
}

func TestSourceLoader_FailingSourceIsIsolated(t *testing.T) {
	ctx := context.Background()
	events := new(mockEventRepo)
	items := new(mockItemRepo)
	metrics := observability.NewInMemoryMetrics()

	expectItemSources(items, "house", nil, errors.New("connection reset"))

	loader := NewSourceLoader(events, items, nil, metrics, nil, DefaultLoaderConfig())

	feeds := loader.LoadItems(ctx, "house")

	assert.Equal(t, []string{SourceUnscheduled}, feeds.Failed)
	assert.Len(t, feeds.Items, 6)
	assert.Equal(t, int64(1), metrics.GetCounter("agenda.source.failed",
		observability.T("source", SourceUnscheduled), observability.T("reason", "error")))
}

func TestSourceLoader_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	events := new(mockEventRepo)
	items := new(mockItemRepo)
	external := &stubEventSource{name: "caldav", err: errors.New("503")}

	events.On("FindByDateRange", mock.Anything, "house", mock.Anything, mock.Anything).
		Return([]domain.CalendarEvent{}, nil)

	loader := NewSourceLoader(events, items, []domain.EventSource{external}, nil, nil, LoaderConfig{
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	})
	day := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		feeds := loader.LoadEvents(ctx, "house", day, day)
		assert.Equal(t, []string{"caldav"}, feeds.Failed)
		require.Len(t, feeds.Events, 1)
	}

	assert.Equal(t, 2, external.calls, "open breaker must short-circuit the source")
	assert.Equal(t, "open", loader.BreakerStates()["caldav"])
	assert.Equal(t, "closed", loader.BreakerStates()[SourceCalendar])
}
