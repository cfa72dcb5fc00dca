package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteEventRepository implements domain.EventRepository using SQLite.
type SQLiteEventRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLiteEventRepository creates a new SQLite event repository.
func NewSQLiteEventRepository(conn database.Connection) *SQLiteEventRepository {
	return &SQLiteEventRepository{conn: conn, now: time.Now}
}

// FindByDateRange returns the events of contextID dated within [startDate, endDate].
func (r *SQLiteEventRepository) FindByDateRange(ctx context.Context, contextID, startDate, endDate string) ([]domain.CalendarEvent, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		WHERE context_id = ? AND date >= ? AND date <= ?
		ORDER BY date, start_time, id`,
		contextID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.CalendarEvent{}
	for rows.Next() {
		ev, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// FindByID returns the event with id.
func (r *SQLiteEventRepository) FindByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, id)
	ev, err := scanSQLiteEvent(row)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}
	return ev, err
}

// FindBySourceItem returns the event created for itemID, or nil.
func (r *SQLiteEventRepository) FindBySourceItem(ctx context.Context, contextID, itemID string) (*domain.CalendarEvent, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		WHERE context_id = ? AND source_item_id = ?
		ORDER BY created_at LIMIT 1`, contextID, itemID)
	ev, err := scanSQLiteEvent(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	return ev, err
}

// Create inserts a new event.
func (r *SQLiteEventRepository) Create(ctx context.Context, ev domain.CalendarEvent) error {
	tags, err := sqliteTags(ev.Tags)
	if err != nil {
		return err
	}
	_, err = database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO calendar_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ContextID, ev.Title, ev.Description, ev.Date, ev.StartTime, ev.EndTime, ev.Duration,
		ev.Type, ev.Color, ev.Domain, ev.Priority, tags, ev.AssignedTo, ev.Status, ev.SourceItemID,
		sqliteTime(ev.CreatedAt), sqliteTime(ev.UpdatedAt),
	)
	return err
}

// Update applies patch to the event with id.
func (r *SQLiteEventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) error {
	query, args := eventPatchClause(patch, r.now(), sqliteTime).update(database.DriverSQLite, "calendar_events", id)
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	return affected(result, domain.ErrEventNotFound, id)
}

// Delete removes the event with id.
func (r *SQLiteEventRepository) Delete(ctx context.Context, id string) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result, domain.ErrEventNotFound, id)
}

func scanSQLiteEvent(row database.Row) (*domain.CalendarEvent, error) {
	var (
		ev                   domain.CalendarEvent
		tags                 string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&ev.ID, &ev.ContextID, &ev.Title, &ev.Description, &ev.Date, &ev.StartTime, &ev.EndTime, &ev.Duration,
		&ev.Type, &ev.Color, &ev.Domain, &ev.Priority, &tags, &ev.AssignedTo, &ev.Status, &ev.SourceItemID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ev.Tags, err = parseSQLiteTags(tags); err != nil {
		return nil, err
	}
	ev.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	ev.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)
	return &ev, nil
}

func sqliteTime(t time.Time) any {
	return t.UTC().Format(sqliteTimeLayout)
}

func sqliteTags(tags []string) (any, error) {
	data, err := json.Marshal(nonNilTags(tags))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func parseSQLiteTags(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}
