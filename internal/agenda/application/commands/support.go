package commands

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	sharedApplication "github.com/felixgeelhaar/homebase/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/homebase/internal/shared/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// Support bundles the collaborators shared by every agenda write handler.
// Outbox, UoW and Refresh may be nil.
type Support struct {
	Outbox  outbox.Writer
	UoW     sharedApplication.UnitOfWork
	Refresh services.RefreshTrigger
	Clock   domain.Clock
	Logger  *slog.Logger
	Metrics observability.Metrics
}

func (s Support) withDefaults() Support {
	if s.Clock == nil {
		s.Clock = domain.SystemClock{}
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Metrics == nil {
		s.Metrics = observability.NoopMetrics{}
	}
	return s
}

// recordEvents stamps metadata on events and stores them in the outbox
// within the caller's unit of work.
func (s Support) recordEvents(ctx context.Context, contextID string, events ...sharedDomain.DomainEvent) error {
	if s.Outbox == nil || len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, contextID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return s.Outbox.SaveBatch(ctx, msgs)
}

// bump signals views of contextID that their agenda is stale. A failing
// trigger is logged, the write it follows has already committed.
func (s Support) bump(ctx context.Context, contextID string) {
	if s.Refresh == nil {
		return
	}
	gen, err := s.Refresh.Bump(ctx, contextID)
	if err != nil {
		s.Logger.WarnContext(ctx, "refresh trigger failed", "context_id", contextID, "error", err)
		return
	}
	s.Metrics.Counter(observability.MetricRefreshBumps, 1)
	s.Logger.DebugContext(ctx, "agenda refresh triggered", "context_id", contextID, "generation", gen)
}

func requireContext(contextID string) error {
	if contextID == "" {
		return domain.NewValidationError("contextId", "household context is required")
	}
	return nil
}
