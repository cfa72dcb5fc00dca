package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
	"github.com/lib/pq"
)

// PostgresItemRepository implements domain.ItemRepository using PostgreSQL.
type PostgresItemRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewPostgresItemRepository creates a new PostgreSQL item repository.
func NewPostgresItemRepository(conn database.Connection) *PostgresItemRepository {
	return &PostgresItemRepository{conn: conn, now: time.Now}
}

// FindByID returns the item with id.
func (r *PostgresItemRepository) FindByID(ctx context.Context, id string) (*domain.SchedulableItem, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+itemColumns+` FROM schedulable_items WHERE id = $1`, id)
	item, err := scanPostgresItem(row)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	return item, err
}

// FindSchedulable returns the tasks of contextID.
func (r *PostgresItemRepository) FindSchedulable(ctx context.Context, contextID string) ([]domain.SchedulableItem, error) {
	return r.list(ctx, `context_id = $1 AND type = $2`, contextID, string(domain.ItemTypeTask))
}

// FindWithTag returns the items of contextID carrying tag, compared case-insensitively.
func (r *PostgresItemRepository) FindWithTag(ctx context.Context, contextID, tag string) ([]domain.SchedulableItem, error) {
	return r.list(ctx,
		`context_id = $1 AND EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = lower($2))`,
		contextID, tag)
}

// FindUnscheduled returns the items of contextID without a slot.
func (r *PostgresItemRepository) FindUnscheduled(ctx context.Context, contextID string) ([]domain.SchedulableItem, error) {
	return r.list(ctx, `context_id = $1 AND (scheduled_date = '' OR scheduled_time = '')`, contextID)
}

// FindByType returns the items of contextID with the given type.
func (r *PostgresItemRepository) FindByType(ctx context.Context, contextID string, itemType domain.ItemType) ([]domain.SchedulableItem, error) {
	return r.list(ctx, `context_id = $1 AND type = $2`, contextID, string(itemType))
}

func (r *PostgresItemRepository) list(ctx context.Context, where string, args ...any) ([]domain.SchedulableItem, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+itemColumns+` FROM schedulable_items WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []domain.SchedulableItem{}
	for rows.Next() {
		item, err := scanPostgresItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Create inserts a new item.
func (r *PostgresItemRepository) Create(ctx context.Context, item domain.SchedulableItem) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`INSERT INTO schedulable_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		item.ID, item.ContextID, string(item.Type), item.Title, item.Description, item.EstimatedDuration, item.Priority,
		item.DueDate, item.ScheduledDate, item.ScheduledTime, pq.Array(nonNilTags(item.Tags)), item.AssignedTo,
		item.GoalID, item.ProjectID, item.MilestoneID, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// MarkScheduled stores the slot on the item.
func (r *PostgresItemRepository) MarkScheduled(ctx context.Context, id, date, startTime string) error {
	return r.Update(ctx, id, domain.ItemPatch{ScheduledDate: &date, ScheduledTime: &startTime})
}

// Update applies patch to the item with id.
func (r *PostgresItemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) error {
	clause, err := itemPatchClause(patch, r.now(), postgresTime, postgresTags)
	if err != nil {
		return err
	}
	query, args := clause.update(database.DriverPostgres, "schedulable_items", id)
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return affected(result, domain.ErrItemNotFound, id)
}

func scanPostgresItem(row database.Row) (*domain.SchedulableItem, error) {
	var (
		item     domain.SchedulableItem
		itemType string
		tags     []string
	)
	err := row.Scan(
		&item.ID, &item.ContextID, &itemType, &item.Title, &item.Description, &item.EstimatedDuration, &item.Priority,
		&item.DueDate, &item.ScheduledDate, &item.ScheduledTime, pq.Array(&tags), &item.AssignedTo,
		&item.GoalID, &item.ProjectID, &item.MilestoneID, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Type = domain.ItemType(itemType)
	if len(tags) > 0 {
		item.Tags = tags
	}
	return &item, nil
}
