package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/homebase/pkg/observability"
	"github.com/stretchr/testify/mock"
)

// 2025-03-05 09:10 UTC, a Wednesday.
var testNow = time.Date(2025, time.March, 5, 9, 10, 0, 0, time.UTC)

const testContext = "household-1"

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

// mockOutboxRepo records outbox writes.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type harness struct {
	events  *mockEventRepo
	items   *mockItemRepo
	outbox  *mockOutboxRepo
	uow     *mockUnitOfWork
	refresh *services.MemoryRefreshTrigger
	metrics *observability.InMemoryMetrics
}

func newHarness() *harness {
	return &harness{
		events:  new(mockEventRepo),
		items:   new(mockItemRepo),
		outbox:  new(mockOutboxRepo),
		uow:     new(mockUnitOfWork),
		refresh: services.NewMemoryRefreshTrigger(),
		metrics: observability.NewInMemoryMetrics(),
	}
}

// support wires the harness mocks; transactional selects whether a unit of work is used.
func (h *harness) support(transactional bool) Support {
	s := Support{
		Outbox:  h.outbox,
		Refresh: h.refresh,
		Clock:   domain.FixedClock{T: testNow},
		Metrics: h.metrics,
	}
	if transactional {
		s.UoW = h.uow
	}
	return s
}

func (h *harness) generation() uint64 {
	gen, _ := h.refresh.Generation(context.Background(), testContext)
	return gen
}

func (h *harness) assertExpectations(t mock.TestingT) {
	h.events.AssertExpectations(t)
	h.items.AssertExpectations(t)
	h.outbox.AssertExpectations(t)
	h.uow.AssertExpectations(t)
}

func strPtr(s string) *string { return &s }
