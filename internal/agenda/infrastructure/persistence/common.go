// Package persistence provides SQLite and PostgreSQL repositories for agenda records.
package persistence

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
)

const eventColumns = `id, context_id, title, description, date, start_time, end_time, duration,
	type, color, domain, priority, tags, assigned_to, status, source_item_id, created_at, updated_at`

const itemColumns = `id, context_id, type, title, description, estimated_duration, priority,
	due_date, scheduled_date, scheduled_time, tags, assigned_to, goal_id, project_id, milestone_id,
	created_at, updated_at`

// setClause collects "column = ?" assignments for a partial update.
type setClause struct {
	columns []string
	args    []any
}

func (s *setClause) add(column string, value any) {
	s.columns = append(s.columns, column+" = ?")
	s.args = append(s.args, value)
}

// update renders an UPDATE for table keyed by id, with placeholders bound for driver.
func (s *setClause) update(driver database.Driver, table, id string) (string, []any) {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(s.columns, ", "))
	return database.Rebind(driver, query), append(s.args, id)
}

// eventPatchClause maps the scalar fields of an EventPatch onto columns.
func eventPatchClause(patch domain.EventPatch, now time.Time, timeArg func(time.Time) any) *setClause {
	s := &setClause{}
	if patch.Title != nil {
		s.add("title", *patch.Title)
	}
	if patch.Date != nil {
		s.add("date", *patch.Date)
	}
	if patch.StartTime != nil {
		s.add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		s.add("end_time", *patch.EndTime)
	}
	if patch.Duration != nil {
		s.add("duration", *patch.Duration)
	}
	if patch.Status != nil {
		s.add("status", *patch.Status)
	}
	s.add("updated_at", timeArg(now))
	return s
}

// itemPatchClause maps an ItemPatch onto columns; tagsArg encodes the tag column.
func itemPatchClause(patch domain.ItemPatch, now time.Time, timeArg func(time.Time) any, tagsArg func([]string) (any, error)) (*setClause, error) {
	s := &setClause{}
	if patch.DueDate != nil {
		s.add("due_date", *patch.DueDate)
	}
	if patch.ScheduledDate != nil {
		s.add("scheduled_date", *patch.ScheduledDate)
	}
	if patch.ScheduledTime != nil {
		s.add("scheduled_time", *patch.ScheduledTime)
	}
	if patch.Tags != nil {
		tags, err := tagsArg(*patch.Tags)
		if err != nil {
			return nil, err
		}
		s.add("tags", tags)
	}
	s.add("updated_at", timeArg(now))
	return s, nil
}

// affected turns a zero-row write into notFound.
func affected(result database.Result, notFound error, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
