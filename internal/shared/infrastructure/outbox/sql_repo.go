package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
)

const selectMessages = `
	SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	       payload, metadata, created_at, published_at, next_retry_at, retry_count,
	       last_error, dead_lettered_at, dead_letter_reason
	FROM outbox`

// SQLRepository stores the outbox in the agenda database. Queries are written
// once with "?" placeholders; the dialect encodes values and scans rows.
type SQLRepository struct {
	conn    database.Connection
	dialect dialect
	now     func() time.Time
}

// NewRepository returns the outbox for conn's backend.
func NewRepository(conn database.Connection) (*SQLRepository, error) {
	d, ok := dialects[conn.Driver()]
	if !ok {
		return nil, fmt.Errorf("outbox: unsupported driver %q", conn.Driver())
	}
	return &SQLRepository{conn: conn, dialect: d, now: time.Now}, nil
}

func (r *SQLRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save inserts msg, inside the ambient transaction if any, and sets its ID.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, database.ExecutorFromContext(ctx, r.conn), msg)
}

// SaveBatch inserts msgs atomically.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	return saveBatch(ctx, r.conn, msgs, r.insert)
}

func (r *SQLRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	d := r.dialect
	err := exec.QueryRow(ctx, r.q(`
		INSERT INTO outbox (
			event_id, aggregate_type, aggregate_id, event_type, routing_key,
			payload, metadata, created_at, next_retry_at, dead_lettered_at, dead_letter_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		d.uuid(msg.EventID),
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.RoutingKey,
		d.json(msg.Payload),
		d.json(msg.Metadata),
		d.time(msg.CreatedAt),
		d.timePtr(msg.NextRetryAt),
		d.timePtr(msg.DeadLetteredAt),
		msg.DeadLetterReason,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("outbox insert %s: %w", msg.RoutingKey, err)
	}
	return nil
}

// GetUnpublished returns up to limit due messages, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := r.conn.Query(ctx, r.q(selectMessages+`
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`), r.dialect.time(r.now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := r.dialect.scan(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, r.q(`UPDATE outbox SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`),
		r.dialect.time(r.now()), id)
	return err
}

// MarkFailed bumps the retry count and parks the message until nextRetryAt.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error {
	_, err := r.conn.Exec(ctx, r.q(`
		UPDATE outbox
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?`), reason, r.dialect.time(nextRetryAt), id)
	return err
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.conn.Exec(ctx, r.q(`UPDATE outbox SET dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`),
		r.dialect.time(r.now()), reason, id)
	return err
}

// Backlog counts messages by undelivered state.
func (r *SQLRepository) Backlog(ctx context.Context) (Backlog, error) {
	var b Backlog
	err := r.conn.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN published_at IS NULL AND dead_lettered_at IS NULL AND retry_count = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN published_at IS NULL AND dead_lettered_at IS NULL AND retry_count > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN dead_lettered_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM outbox`).Scan(&b.Pending, &b.Retrying, &b.Dead)
	return b, err
}

// DeleteOld removes messages published before the given time.
func (r *SQLRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn.Exec(ctx, r.q(`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`),
		r.dialect.time(before))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
