package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/stretchr/testify/mock"
)

// 2025-03-05 is a Wednesday.
var testNow = time.Date(2025, time.March, 5, 8, 0, 0, 0, time.UTC)

const testDate = "2025-03-05"

func fixedClock() domain.Clock {
	return domain.FixedClock{T: testNow}
}

func scheduledEntry(id string, d domain.LifeDomain, start, end string) domain.Entry {
	ev := domain.CalendarEvent{ID: id, Date: testDate, StartTime: start, EndTime: end}
	return domain.Entry{
		ID:       id,
		Kind:     domain.KindEvent,
		Title:    id,
		Date:     testDate,
		Interval: &domain.Interval{Start: start, End: end},
		Domain:   d,
		Priority: domain.PriorityMedium,
		Source:   &domain.SourceRef{Event: &ev},
	}
}

func itemEntry(id string, p domain.Priority, kind domain.Kind, duration int, due *time.Time) domain.Entry {
	item := domain.SchedulableItem{ID: id, Title: id, Type: domain.ItemTypeTask}
	return domain.Entry{
		ID:                       domain.UnscheduledIDPrefix + id,
		Kind:                     kind,
		Title:                    id,
		Domain:                   domain.DomainPersonal,
		Priority:                 p,
		Source:                   &domain.SourceRef{Item: &item},
		EstimatedDurationMinutes: duration,
		DueDate:                  due,
	}
}

func dayOffset(days int) *time.Time {
	t := time.Date(2025, time.March, 5+days, 9, 0, 0, 0, time.UTC)
	return &t
}

func ids(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) FindByDateRange(ctx context.Context, contextID, startDate, endDate string) ([]domain.CalendarEvent, error) {
	args := m.Called(ctx, contextID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CalendarEvent), args.Error(1)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalendarEvent), args.Error(1)
}

func (m *mockEventRepo) FindBySourceItem(ctx context.Context, contextID, itemID string) (*domain.CalendarEvent, error) {
	args := m.Called(ctx, contextID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalendarEvent), args.Error(1)
}

func (m *mockEventRepo) Create(ctx context.Context, event domain.CalendarEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventRepo) Update(ctx context.Context, id string, patch domain.EventPatch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockItemRepo struct {
	mock.Mock
}

func (m *mockItemRepo) items(args mock.Arguments) ([]domain.SchedulableItem, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SchedulableItem), args.Error(1)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*domain.SchedulableItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchedulableItem), args.Error(1)
}

func (m *mockItemRepo) FindSchedulable(ctx context.Context, contextID string) ([]domain.SchedulableItem, error) {
	return m.items(m.Called(ctx, contextID))
}

func (m *mockItemRepo) FindWithTag(ctx context.Context, contextID, tag string) ([]domain.SchedulableItem, error) {
	return m.items(m.Called(ctx, contextID, tag))
}

func (m *mockItemRepo) FindUnscheduled(ctx context.Context, contextID string) ([]domain.SchedulableItem, error) {
	return m.items(m.Called(ctx, contextID))
}

func (m *mockItemRepo) FindByType(ctx context.Context, contextID string, itemType domain.ItemType) ([]domain.SchedulableItem, error) {
	return m.items(m.Called(ctx, contextID, itemType))
}

func (m *mockItemRepo) Create(ctx context.Context, item domain.SchedulableItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockItemRepo) MarkScheduled(ctx context.Context, id, date, startTime string) error {
	return m.Called(ctx, id, date, startTime).Error(0)
}

func (m *mockItemRepo) Update(ctx context.Context, id string, patch domain.ItemPatch) error {
	return m.Called(ctx, id, patch).Error(0)
}
