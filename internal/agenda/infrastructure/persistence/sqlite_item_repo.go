package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
)

// SQLiteItemRepository implements domain.ItemRepository using SQLite.
type SQLiteItemRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLiteItemRepository creates a new SQLite item repository.
func NewSQLiteItemRepository(conn database.Connection) *SQLiteItemRepository {
	return &SQLiteItemRepository{conn: conn, now: time.Now}
}

// FindByID returns the item with id.
func (r *SQLiteItemRepository) FindByID(ctx context.Context, id string) (*domain.SchedulableItem, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+itemColumns+` FROM schedulable_items WHERE id = ?`, id)
	item, err := scanSQLiteItem(row)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	return item, err
}

// FindSchedulable returns the tasks of contextID.
func (r *SQLiteItemRepository) FindSchedulable(ctx context.Context, contextID string) ([]domain.SchedulableItem, error) {
	return r.list(ctx, `context_id = ? AND type = ?`, contextID, string(domain.ItemTypeTask))
}

// FindWithTag returns the items of contextID carrying tag, compared case-insensitively.
func (r *SQLiteItemRepository) FindWithTag(ctx context.Context, contextID, tag string) ([]domain.SchedulableItem, error) {
	return r.list(ctx,
		`context_id = ? AND EXISTS (SELECT 1 FROM json_each(schedulable_items.tags) WHERE lower(json_each.value) = lower(?))`,
		contextID, tag)
}

// FindUnscheduled returns the items of contextID without a slot.
func (r *SQLiteItemRepository) FindUnscheduled(ctx context.Context, contextID string) ([]domain.SchedulableItem, error) {
	return r.list(ctx, `context_id = ? AND (scheduled_date = '' OR scheduled_time = '')`, contextID)
}

// FindByType returns the items of contextID with the given type.
func (r *SQLiteItemRepository) FindByType(ctx context.Context, contextID string, itemType domain.ItemType) ([]domain.SchedulableItem, error) {
	return r.list(ctx, `context_id = ? AND type = ?`, contextID, string(itemType))
}

func (r *SQLiteItemRepository) list(ctx context.Context, where string, args ...any) ([]domain.SchedulableItem, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+itemColumns+` FROM schedulable_items WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.SchedulableItem{}
	for rows.Next() {
		item, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Create inserts a new item.
func (r *SQLiteItemRepository) Create(ctx context.Context, item domain.SchedulableItem) error {
	tags, err := sqliteTags(item.Tags)
	if err != nil {
		return err
	}
	_, err = database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO schedulable_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ContextID, string(item.Type), item.Title, item.Description, item.EstimatedDuration, item.Priority,
		item.DueDate, item.ScheduledDate, item.ScheduledTime, tags, item.AssignedTo, item.GoalID, item.ProjectID, item.MilestoneID,
		sqliteTime(item.CreatedAt), sqliteTime(item.UpdatedAt),
	)
	return err
}

// MarkScheduled stores the slot on the item.
func (r *SQLiteItemRepository) MarkScheduled(ctx context.Context, id, date, startTime string) error {
	return r.Update(ctx, id, domain.ItemPatch{ScheduledDate: &date, ScheduledTime: &startTime})
}

// Update applies patch to the item with id.
func (r *SQLiteItemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) error {
	clause, err := itemPatchClause(patch, r.now(), sqliteTime, sqliteTags)
	if err != nil {
		return err
	}
	query, args := clause.update(database.DriverSQLite, "schedulable_items", id)
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	return affected(result, domain.ErrItemNotFound, id)
}

func scanSQLiteItem(row database.Row) (*domain.SchedulableItem, error) {
	var (
		item                 domain.SchedulableItem
		itemType, tags       string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&item.ID, &item.ContextID, &itemType, &item.Title, &item.Description, &item.EstimatedDuration, &item.Priority,
		&item.DueDate, &item.ScheduledDate, &item.ScheduledTime, &tags, &item.AssignedTo, &item.GoalID, &item.ProjectID, &item.MilestoneID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Type = domain.ItemType(itemType)
	if item.Tags, err = parseSQLiteTags(tags); err != nil {
		return nil, err
	}
	item.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	item.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)
	return &item, nil
}
