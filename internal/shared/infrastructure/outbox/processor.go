package outbox

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// ProcessorConfig tunes the relay loop.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries is the number of publish attempts before a message is
	// dead-lettered. Zero dead-letters on the first failure.
	MaxRetries int
	Backoff    Backoff
	// Retention is how long published messages are kept before Cleanup removes them.
	Retention time.Duration
}

// DefaultProcessorConfig polls often and keeps a week of published rows.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval: 100 * time.Millisecond,
		BatchSize:    100,
		MaxRetries:   5,
		Backoff:      Backoff{Base: time.Second, Max: time.Minute},
		Retention:    7 * 24 * time.Hour,
	}
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	def := DefaultProcessorConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.Backoff.Base <= 0 {
		c.Backoff.Base = def.Backoff.Base
	}
	if c.Backoff.Max <= 0 {
		c.Backoff.Max = def.Backoff.Max
	}
	if c.Retention <= 0 {
		c.Retention = def.Retention
	}
	return c
}

// Backoff doubles the retry delay per attempt up to Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before attempt number attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= b.Max || d <= 0 {
			return b.Max
		}
	}
	return min(d, b.Max)
}

// BatchResult counts what one relay pass did with the messages it fetched.
type BatchResult struct {
	Fetched   int
	Published int
	Retried   int
	Dead      int
	// Oldest is the creation time of the oldest fetched message.
	Oldest time.Time
}

// Processor relays outbox rows to a Publisher. Each message is published at
// least once; subscribers are idempotent.
type Processor struct {
	store     Store
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	published atomic.Uint64
	retried   atomic.Uint64
	dead      atomic.Uint64

	lastMu    sync.Mutex
	lastBatch time.Time
	lag       time.Duration
	lastErr   string
	lastErrAt time.Time
}

// NewProcessor creates a processor over store.
func NewProcessor(store Store, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:     store,
		publisher: publisher,
		config:    config.withDefaults(),
		logger:    logger.With("component", "outbox"),
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
	}
}

// WithMetrics reports relay outcomes to m.
func (p *Processor) WithMetrics(m observability.Metrics) *Processor {
	if m != nil {
		p.metrics = m
	}
	return p
}

// Start runs the relay loop in the background until ctx ends or Stop is
// called. Starting a running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"max_retries", p.config.MaxRetries,
	)
	return nil
}

// Stop cancels the loop and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Processor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.RelayBatch(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
		}
	}
}

// RelayBatch publishes up to BatchSize due messages. Publish failures are
// recorded on the message and do not fail the batch; only a failed fetch does.
func (p *Processor) RelayBatch(ctx context.Context) (BatchResult, error) {
	msgs, err := p.store.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return BatchResult{}, err
	}

	now := p.now()
	result := BatchResult{Fetched: len(msgs)}
	for _, msg := range msgs {
		if result.Oldest.IsZero() || msg.CreatedAt.Before(result.Oldest) {
			result.Oldest = msg.CreatedAt
		}
		switch p.relay(ctx, msg) {
		case StatePublished:
			result.Published++
		case StateRetrying:
			result.Retried++
		case StateDead:
			result.Dead++
		}
	}

	p.published.Add(uint64(result.Published))
	p.retried.Add(uint64(result.Retried))
	p.dead.Add(uint64(result.Dead))

	p.lastMu.Lock()
	p.lastBatch = now
	p.lag = 0
	if !result.Oldest.IsZero() {
		p.lag = now.Sub(result.Oldest)
	}
	p.lastMu.Unlock()

	return result, nil
}

// relay publishes one message and records the outcome. It returns the state
// the message moved to, or StatePending when the bookkeeping write failed.
func (p *Processor) relay(ctx context.Context, msg *Message) State {
	pubErr := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	if pubErr == nil {
		if err := p.store.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.ErrorContext(ctx, "failed to mark message published", "id", msg.ID, "event_id", msg.EventID, "error", err)
			return StatePending
		}
		p.metrics.Counter(observability.MetricOutboxRelayed, 1, observability.T("outcome", string(StatePublished)))
		return StatePublished
	}

	p.noteError(pubErr)
	meta := msg.EventMetadata()
	log := p.logger.With(
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"attempt", msg.RetryCount+1,
		"correlation_id", meta.CorrelationID,
		"household", meta.ContextID,
	)

	state := StateRetrying
	var markErr error
	if msg.RetryCount+1 >= p.config.MaxRetries {
		state = StateDead
		log.WarnContext(ctx, "dead-lettering message", "age", msg.Age(p.now()), "error", pubErr)
		markErr = p.store.MarkDead(ctx, msg.ID, pubErr.Error())
	} else {
		retryAt := p.now().Add(p.config.Backoff.Delay(msg.RetryCount + 1))
		log.WarnContext(ctx, "publish failed, will retry", "retry_at", retryAt, "error", pubErr)
		markErr = p.store.MarkFailed(ctx, msg.ID, pubErr.Error(), retryAt)
	}
	if markErr != nil {
		log.ErrorContext(ctx, "failed to record publish failure", "state", state, "error", markErr)
		return StatePending
	}
	p.metrics.Counter(observability.MetricOutboxRelayed, 1, observability.T("outcome", string(state)))
	return state
}

// Drain relays batches until one publishes nothing, so a short-lived process
// hands off everything it wrote before exiting. Failed messages wait for
// their retry time and are not retried within the same call.
func (p *Processor) Drain(ctx context.Context) (int, error) {
	relayed := 0
	for {
		result, err := p.RelayBatch(ctx)
		relayed += result.Published
		if err != nil || result.Published == 0 {
			return relayed, err
		}
	}
}

// Cleanup deletes published messages older than the retention window.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := p.store.DeleteOld(ctx, p.now().Add(-p.config.Retention))
	if err != nil {
		p.noteError(err)
		return 0, err
	}
	return deleted, nil
}

// Backlog reports what is still waiting in the outbox table.
func (p *Processor) Backlog(ctx context.Context) (Backlog, error) {
	return p.store.Backlog(ctx)
}

func (p *Processor) noteError(err error) {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	p.lastErr = err.Error()
	p.lastErrAt = p.now()
}

// Stats is a snapshot of what this processor has done since it was created.
type Stats struct {
	Running   bool
	Published uint64
	Retried   uint64
	Dead      uint64
	// Lag is the age of the oldest message in the last batch.
	Lag         time.Duration
	LastBatchAt time.Time
	LastError   string
	LastErrorAt time.Time
}

// Stats returns the current counters.
func (p *Processor) Stats() Stats {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	return Stats{
		Running:     p.IsRunning(),
		Published:   p.published.Load(),
		Retried:     p.retried.Load(),
		Dead:        p.dead.Load(),
		Lag:         p.lag,
		LastBatchAt: p.lastBatch,
		LastError:   p.lastErr,
		LastErrorAt: p.lastErrAt,
	}
}
