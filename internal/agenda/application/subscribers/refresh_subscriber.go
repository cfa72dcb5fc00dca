package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// RefreshSubscriber bumps the refresh trigger of the household an agenda
// event belongs to, so views rendered by other processes re-run.
type RefreshSubscriber struct {
	trigger services.RefreshTrigger
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewRefreshSubscriber creates a new refresh subscriber.
func NewRefreshSubscriber(trigger services.RefreshTrigger, metrics observability.Metrics, logger *slog.Logger) *RefreshSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RefreshSubscriber{trigger: trigger, metrics: metrics, logger: logger}
}

// RoutingKeys returns the agenda events that change what a view shows.
func (s *RefreshSubscriber) RoutingKeys() []string {
	return domain.AgendaRoutingKeys()
}

type contextPayload struct {
	ContextID string `json:"context_id"`
}

// Handle processes an event. Events without a household are dropped.
func (s *RefreshSubscriber) Handle(ctx context.Context, event *eventbus.Event) error {
	s.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("routing_key", event.RoutingKey))

	contextID := event.Metadata.ContextID
	if contextID == "" {
		var payload contextPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			s.logger.Debug("failed to unmarshal agenda payload",
				"event_id", event.EventID,
				"error", err,
			)
		}
		contextID = payload.ContextID
	}
	if contextID == "" {
		s.logger.Warn("agenda event without household, skipping",
			"event_id", event.EventID,
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	gen, err := s.trigger.Bump(ctx, contextID)
	if err != nil {
		return err
	}
	s.metrics.Counter(observability.MetricRefreshBumps, 1)
	s.logger.Debug("agenda refresh triggered by event",
		"context_id", contextID,
		"routing_key", event.RoutingKey,
		"item_id", event.AggregateID,
		"generation", gen,
	)
	return nil
}
