package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Router fans an event out to every handler subscribed to its routing key.
type Router struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{handlers: make(map[string][]Handler), logger: logger}
}

// Subscribe routes h's keys to it.
func (r *Router) Subscribe(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range h.RoutingKeys() {
		r.handlers[key] = append(r.handlers[key], h)
	}
}

// Routes returns the subscribed routing keys, sorted.
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.handlers))
	for key := range r.handlers {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Handlers returns the handlers for key.
func (r *Router) Handlers(key string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.handlers[key])
}

// Dispatch runs every handler for event.RoutingKey. All handlers run even
// when one fails; the failures are joined.
func (r *Router) Dispatch(ctx context.Context, event *Event) error {
	handlers := r.Handlers(event.RoutingKey)
	if len(handlers) == 0 {
		r.logger.DebugContext(ctx, "no handler for event", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", h, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		r.logger.ErrorContext(ctx, "event handling failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"failed_handlers", len(errs),
			"error", err,
		)
		return err
	}
	return nil
}
