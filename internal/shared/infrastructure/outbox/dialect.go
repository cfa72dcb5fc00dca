package outbox

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// dialect adapts values to a backend's column types. PostgreSQL has native
// UUID, JSONB and TIMESTAMPTZ columns; SQLite stores all three as TEXT.
type dialect struct {
	uuid func(uuid.UUID) any
	json func(json.RawMessage) any
	time func(time.Time) any
	scan func(database.Rows) (*Message, error)
}

func (d dialect) timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.time(*t)
}

var dialects = map[database.Driver]dialect{
	database.DriverPostgres: {
		uuid: func(id uuid.UUID) any { return id },
		json: func(raw json.RawMessage) any {
			if len(raw) == 0 {
				return nil
			}
			return []byte(raw)
		},
		time: func(t time.Time) any { return t.UTC() },
		scan: scanPostgres,
	},
	database.DriverSQLite: {
		uuid: func(id uuid.UUID) any { return id.String() },
		json: func(raw json.RawMessage) any {
			if len(raw) == 0 {
				return nil
			}
			return string(raw)
		},
		time: func(t time.Time) any { return formatSQLiteTime(t) },
		scan: scanSQLite,
	},
}

func scanPostgres(rows database.Rows) (*Message, error) {
	var (
		msg               Message
		payload, metadata []byte
	)
	err := rows.Scan(
		&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &msg.CreatedAt, &msg.PublishedAt, &msg.NextRetryAt, &msg.RetryCount,
		&msg.LastError, &msg.DeadLetteredAt, &msg.DeadLetterReason,
	)
	if err != nil {
		return nil, err
	}
	msg.Payload = payload
	msg.Metadata = metadata
	return &msg, nil
}

// sqliteTimeLayout is fixed-width UTC so stored timestamps compare lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func scanSQLite(rows database.Rows) (*Message, error) {
	var (
		msg                                        Message
		eventID, payload, createdAt                string
		metadata, publishedAt, nextRetryAt, deadAt sql.NullString
		lastError, deadReason                      sql.NullString
	)
	err := rows.Scan(
		&msg.ID, &eventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &nextRetryAt, &msg.RetryCount,
		&lastError, &deadAt, &deadReason,
	)
	if err != nil {
		return nil, err
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, err
	}
	msg.Payload = json.RawMessage(payload)
	if metadata.Valid {
		msg.Metadata = json.RawMessage(metadata.String)
	}
	msg.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	msg.PublishedAt = sqliteTimePtr(publishedAt)
	msg.NextRetryAt = sqliteTimePtr(nextRetryAt)
	msg.DeadLetteredAt = sqliteTimePtr(deadAt)
	msg.LastError = nullStringPtr(lastError)
	msg.DeadLetterReason = nullStringPtr(deadReason)
	return &msg, nil
}

func sqliteTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
