package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/homebase/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps outbox rows in a slice.
type memStore struct {
	mu       sync.Mutex
	rows     []*outbox.Message
	fetchErr error
}

func (s *memStore) add(msgs ...*outbox.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		msg.ID = int64(len(s.rows) + 1)
		s.rows = append(s.rows, msg)
	}
}

func (s *memStore) GetUnpublished(_ context.Context, limit int) ([]*outbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	now := time.Now()
	var due []*outbox.Message
	for _, msg := range s.rows {
		state := msg.State()
		if state == outbox.StatePublished || state == outbox.StateDead {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		due = append(due, msg)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (s *memStore) find(id int64) *outbox.Message {
	for _, msg := range s.rows {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

func (s *memStore) MarkPublished(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.find(id).PublishedAt = &now
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, id int64, reason string, retryAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.find(id)
	msg.RetryCount++
	msg.LastError = &reason
	msg.NextRetryAt = &retryAt
	return nil
}

func (s *memStore) MarkDead(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	msg := s.find(id)
	msg.DeadLetteredAt = &now
	msg.DeadLetterReason = &reason
	return nil
}

func (s *memStore) DeleteOld(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	var deleted int64
	for _, msg := range s.rows {
		if msg.PublishedAt != nil && msg.PublishedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	s.rows = kept
	return deleted, nil
}

func (s *memStore) Backlog(context.Context) (outbox.Backlog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b outbox.Backlog
	for _, msg := range s.rows {
		switch msg.State() {
		case outbox.StatePending:
			b.Pending++
		case outbox.StateRetrying:
			b.Retrying++
		case outbox.StateDead:
			b.Dead++
		}
	}
	return b, nil
}

// brokerStub fails publishes for the routing keys in failing.
type brokerStub struct {
	mu      sync.Mutex
	keys    []string
	failing map[string]bool
}

func (b *brokerStub) Publish(_ context.Context, routingKey string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing[routingKey] || b.failing["*"] {
		return errors.New("channel closed")
	}
	b.keys = append(b.keys, routingKey)
	return nil
}

func (b *brokerStub) Close() error { return nil }

func (b *brokerStub) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.keys...)
}

func row(routingKey string) *outbox.Message {
	return &outbox.Message{
		EventID:     uuid.New(),
		AggregateID: "item-" + uuid.NewString()[:8],
		RoutingKey:  routingKey,
		EventType:   routingKey,
		Payload:     []byte(`{"item_id":"x"}`),
		Metadata:    []byte(`{"correlation_id":"corr-1","context_id":"house"}`),
		CreatedAt:   time.Now().Add(-time.Second),
	}
}

func newProcessor(store *memStore, broker *brokerStub, mutate func(*outbox.ProcessorConfig)) *outbox.Processor {
	cfg := outbox.DefaultProcessorConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return outbox.NewProcessor(store, broker, cfg, nil)
}

func TestProcessor_RelayBatch(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	broker := &brokerStub{failing: map[string]bool{"agenda.item.deferred": true}}
	metrics := observability.NewInMemoryMetrics()
	p := newProcessor(store, broker, nil).WithMetrics(metrics)

	store.add(row("agenda.item.scheduled"), row("agenda.item.deferred"), row("agenda.item.unscheduled"))

	result, err := p.RelayBatch(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Published)
	assert.Equal(t, 1, result.Retried)
	assert.Zero(t, result.Dead)
	assert.Equal(t, []string{"agenda.item.scheduled", "agenda.item.unscheduled"}, broker.published())

	failed := store.find(2)
	assert.Equal(t, outbox.StateRetrying, failed.State())
	require.NotNil(t, failed.NextRetryAt)
	assert.True(t, failed.NextRetryAt.After(time.Now()))

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(1), stats.Retried)
	assert.Equal(t, "channel closed", stats.LastError)
	assert.Greater(t, stats.Lag, time.Duration(0))
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricOutboxRelayed, observability.T("outcome", "published")))

	backlog, err := p.Backlog(ctx)
	require.NoError(t, err)
	assert.Equal(t, outbox.Backlog{Retrying: 1}, backlog)
}

func TestProcessor_RelayBatch_DeadLettersOnLastAttempt(t *testing.T) {
	store := &memStore{}
	broker := &brokerStub{failing: map[string]bool{"*": true}}
	p := newProcessor(store, broker, func(c *outbox.ProcessorConfig) { c.MaxRetries = 2 })

	msg := row("agenda.item.scheduled")
	msg.RetryCount = 1
	store.add(msg)

	result, err := p.RelayBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Dead)
	assert.Equal(t, outbox.StateDead, msg.State())
	require.NotNil(t, msg.DeadLetterReason)
	assert.Equal(t, "channel closed", *msg.DeadLetterReason)
	assert.Equal(t, uint64(1), p.Stats().Dead)
}

func TestProcessor_RelayBatch_FetchError(t *testing.T) {
	store := &memStore{fetchErr: errors.New("database is locked")}
	p := newProcessor(store, &brokerStub{}, nil)

	_, err := p.RelayBatch(context.Background())

	require.Error(t, err)
	assert.Equal(t, "database is locked", p.Stats().LastError)
}

func TestProcessor_Drain(t *testing.T) {
	t.Run("relays every due message across batches", func(t *testing.T) {
		store := &memStore{}
		broker := &brokerStub{}
		p := newProcessor(store, broker, func(c *outbox.ProcessorConfig) { c.BatchSize = 2 })
		for range 5 {
			store.add(row("agenda.item.scheduled"))
		}

		relayed, err := p.Drain(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 5, relayed)
		assert.Len(t, broker.published(), 5)
	})

	t.Run("stops when nothing publishes", func(t *testing.T) {
		store := &memStore{}
		p := newProcessor(store, &brokerStub{failing: map[string]bool{"*": true}}, nil)
		store.add(row("agenda.item.scheduled"))

		relayed, err := p.Drain(context.Background())

		require.NoError(t, err)
		assert.Zero(t, relayed)
		assert.Equal(t, 1, store.find(1).RetryCount)
	})
}

func TestProcessor_Cleanup(t *testing.T) {
	store := &memStore{}
	p := newProcessor(store, &brokerStub{}, func(c *outbox.ProcessorConfig) { c.Retention = time.Hour })

	old := row("agenda.item.scheduled")
	longAgo := time.Now().Add(-2 * time.Hour)
	old.PublishedAt = &longAgo
	store.add(old, row("agenda.item.scheduled"), row("agenda.item.deferred"))
	_, err := p.RelayBatch(context.Background())
	require.NoError(t, err)

	deleted, err := p.Cleanup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, store.rows, 2)
}

func TestProcessor_StartStop(t *testing.T) {
	store := &memStore{}
	broker := &brokerStub{}
	p := newProcessor(store, broker, func(c *outbox.ProcessorConfig) { c.PollInterval = 5 * time.Millisecond })

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.Stats().Running)

	store.add(row("agenda.item.scheduled"))
	assert.Eventually(t, func() bool { return len(broker.published()) == 1 }, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop()
	assert.False(t, p.IsRunning())
}

func TestProcessor_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newProcessor(&memStore{}, &brokerStub{}, func(c *outbox.ProcessorConfig) { c.PollInterval = time.Millisecond })

	require.NoError(t, p.Start(ctx))
	cancel()
	p.Stop()

	assert.False(t, p.IsRunning())
}

func TestBackoff_Delay(t *testing.T) {
	b := outbox.Backoff{Base: time.Second, Max: 10 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{80, 10 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}
