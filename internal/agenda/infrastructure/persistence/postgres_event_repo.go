package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
	"github.com/lib/pq"
)

// PostgresEventRepository implements domain.EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(conn database.Connection) *PostgresEventRepository {
	return &PostgresEventRepository{conn: conn, now: time.Now}
}

// FindByDateRange returns the events of contextID dated within [startDate, endDate].
func (r *PostgresEventRepository) FindByDateRange(ctx context.Context, contextID, startDate, endDate string) ([]domain.CalendarEvent, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		WHERE context_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time, id`,
		contextID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []domain.CalendarEvent{}
	for rows.Next() {
		ev, err := scanPostgresEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// FindByID returns the event with id.
func (r *PostgresEventRepository) FindByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id)
	ev, err := scanPostgresEvent(row)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}
	return ev, err
}

// FindBySourceItem returns the event created for itemID, or nil.
func (r *PostgresEventRepository) FindBySourceItem(ctx context.Context, contextID, itemID string) (*domain.CalendarEvent, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		WHERE context_id = $1 AND source_item_id = $2
		ORDER BY created_at LIMIT 1`, contextID, itemID)
	ev, err := scanPostgresEvent(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	return ev, err
}

// Create inserts a new event.
func (r *PostgresEventRepository) Create(ctx context.Context, ev domain.CalendarEvent) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO calendar_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		ev.ID, ev.ContextID, ev.Title, ev.Description, ev.Date, ev.StartTime, ev.EndTime, ev.Duration,
		ev.Type, ev.Color, ev.Domain, ev.Priority, pq.Array(nonNilTags(ev.Tags)), ev.AssignedTo, ev.Status, ev.SourceItemID,
		ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Update applies patch to the event with id.
func (r *PostgresEventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) error {
	query, args := eventPatchClause(patch, r.now(), postgresTime).update(database.DriverPostgres, "calendar_events", id)
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return affected(result, domain.ErrEventNotFound, id)
}

// Delete removes the event with id.
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return affected(result, domain.ErrEventNotFound, id)
}

func scanPostgresEvent(row database.Row) (*domain.CalendarEvent, error) {
	var (
		ev   domain.CalendarEvent
		tags []string
	)
	err := row.Scan(
		&ev.ID, &ev.ContextID, &ev.Title, &ev.Description, &ev.Date, &ev.StartTime, &ev.EndTime, &ev.Duration,
		&ev.Type, &ev.Color, &ev.Domain, &ev.Priority, pq.Array(&tags), &ev.AssignedTo, &ev.Status, &ev.SourceItemID,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		ev.Tags = tags
	}
	return &ev, nil
}

func postgresTime(t time.Time) any {
	return t.UTC()
}

func postgresTags(tags []string) (any, error) {
	return pq.Array(nonNilTags(tags)), nil
}
