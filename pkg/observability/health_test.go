package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingOK(context.Context) error { return nil }

func pingFail(context.Context) error { return errors.New("connection refused") }

func TestHealthStatus_Worse(t *testing.T) {
	assert.Equal(t, HealthStatusDegraded, HealthStatusHealthy.Worse(HealthStatusDegraded))
	assert.Equal(t, HealthStatusUnhealthy, HealthStatusUnhealthy.Worse(HealthStatusDegraded))
	assert.Equal(t, HealthStatusHealthy, HealthStatusHealthy.Worse(HealthStatusHealthy))
}

func TestHealthRegistry_Overall(t *testing.T) {
	ctx := context.Background()

	t.Run("no checks is healthy", func(t *testing.T) {
		r := NewHealthRegistry()
		assert.Equal(t, HealthStatusHealthy, r.GetOverallHealth(ctx).Status)
	})

	t.Run("optional dependency down degrades", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingCheck("database", HealthStatusUnhealthy, pingOK))
		r.Register("redis", PingCheck("redis", HealthStatusDegraded, pingFail))

		overall := r.GetOverallHealth(ctx)

		assert.Equal(t, HealthStatusDegraded, overall.Status)
		require.Len(t, overall.Checks, 2)
		assert.Equal(t, "redis unreachable: connection refused", overall.Checks["redis"].Message)
		assert.Equal(t, "database reachable", overall.Checks["database"].Message)
	})

	t.Run("required dependency down is unhealthy", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingCheck("database", HealthStatusUnhealthy, pingFail))
		r.Register("rabbitmq", PingCheck("rabbitmq", HealthStatusDegraded, pingFail))

		assert.Equal(t, HealthStatusUnhealthy, r.GetOverallHealth(ctx).Status)
	})
}

func TestHealthRegistry_CheckTimesOut(t *testing.T) {
	r := NewHealthRegistry()
	r.SetTimeout(10 * time.Millisecond)
	r.Register("caldav", PingCheck("caldav", HealthStatusDegraded, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	result, found := r.CheckOne(context.Background(), "caldav")

	require.True(t, found)
	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Contains(t, result.Message, "deadline exceeded")
}

func TestHealthRegistry_CheckOneAndUnregister(t *testing.T) {
	ctx := context.Background()
	r := NewHealthRegistry()
	r.Register("rabbitmq", PingCheck("rabbitmq", HealthStatusDegraded, pingOK))

	result, found := r.CheckOne(ctx, "rabbitmq")
	require.True(t, found)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.False(t, result.Timestamp.IsZero())

	r.Unregister("rabbitmq")
	_, found = r.CheckOne(ctx, "rabbitmq")
	assert.False(t, found)
}

func TestOverallHealth_ToJSON(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("database", PingCheck("database", HealthStatusUnhealthy, pingOK))

	data, err := r.GetOverallHealth(context.Background()).ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"healthy"`)
	assert.Contains(t, string(data), `"database"`)
}
