package observability

import (
	"context"
	"time"
)

// Observe runs fn and records its duration and outcome under the
// operation tag. Errors also count toward MetricOperationErrors.
func Observe[R any](ctx context.Context, metrics Metrics, operation string, fn func(ctx context.Context) (R, error)) (R, error) {
	start := time.Now()
	result, err := fn(ctx)

	tag := T("operation", operation)
	metrics.Timing(MetricOperationDuration, time.Since(start), tag)
	metrics.Counter(MetricOperationTotal, 1, tag)
	if err != nil {
		metrics.Counter(MetricOperationErrors, 1, tag)
	}
	return result, err
}
