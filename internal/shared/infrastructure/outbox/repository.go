package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
)

// Writer appends messages. Command handlers only need this half and call it
// inside their unit of work.
type Writer interface {
	Save(ctx context.Context, msg *Message) error
	SaveBatch(ctx context.Context, msgs []*Message) error
}

// Store is the processor's view: claim due messages and record the outcome.
type Store interface {
	// GetUnpublished returns due messages, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld removes messages published before the given time.
	DeleteOld(ctx context.Context, before time.Time) (int64, error)
	Backlog(ctx context.Context) (Backlog, error)
}

// Repository is the full outbox table.
type Repository interface {
	Writer
	Store
}

// Backlog counts messages that have not reached the broker.
type Backlog struct {
	Pending  int64 `json:"pending"`
	Retrying int64 `json:"retrying"`
	Dead     int64 `json:"dead"`
}

// Stuck reports whether anything is waiting on a retry or was given up on.
func (b Backlog) Stuck() bool { return b.Retrying > 0 || b.Dead > 0 }

type inserter func(ctx context.Context, exec database.Executor, msg *Message) error

// saveBatch inserts msgs in one transaction, joining the caller's if any.
func saveBatch(ctx context.Context, conn database.Connection, msgs []*Message, insert inserter) error {
	if len(msgs) == 0 {
		return nil
	}

	uow := database.NewUnitOfWork(conn)
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	exec := database.TxFromContext(txCtx)
	for _, msg := range msgs {
		if err := insert(txCtx, exec, msg); err != nil {
			_ = uow.Rollback(txCtx)
			return err
		}
	}
	return uow.Commit(txCtx)
}
