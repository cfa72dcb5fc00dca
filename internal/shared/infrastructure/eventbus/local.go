package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// LocalBus is the Publisher used without a broker: the outbox processor
// hands messages straight to in-process handlers.
type LocalBus struct {
	router *Router
	logger *slog.Logger
	// Serialises deliveries so handlers see outbox order.
	mu sync.Mutex
}

// NewLocalBus creates a bus with no handlers.
func NewLocalBus(logger *slog.Logger) *LocalBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBus{router: NewRouter(logger), logger: logger}
}

// Subscribe adds a handler.
func (b *LocalBus) Subscribe(h Handler) {
	b.router.Subscribe(h)
}

// Routes returns the subscribed routing keys.
func (b *LocalBus) Routes() []string {
	return b.router.Routes()
}

// Publish decodes and dispatches a message. Undecodable bodies are dropped
// since redelivery cannot fix them; handler errors are returned so the
// outbox retries.
func (b *LocalBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(routingKey, payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable message", "routing_key", routingKey, "error", err)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.router.Dispatch(ctx, event)
}

func (b *LocalBus) Close() error { return nil }
