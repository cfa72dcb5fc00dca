package observability

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	correlationKey ctxKey = iota
	householdKey
)

// Attribute names added to every record by the context handler.
const (
	CorrelationIDKey = "correlation_id"
	HouseholdKey     = "household"
)

// WithCorrelationID tags ctx with a correlation id that flows into logs and
// event metadata. An empty id gets a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationIDFromContext returns the id set by WithCorrelationID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// WithHousehold tags ctx with the household (context id) being operated on.
func WithHousehold(ctx context.Context, contextID string) context.Context {
	return context.WithValue(ctx, householdKey, contextID)
}

// HouseholdFromContext returns the id set by WithHousehold, or "".
func HouseholdFromContext(ctx context.Context) string {
	id, _ := ctx.Value(householdKey).(string)
	return id
}
