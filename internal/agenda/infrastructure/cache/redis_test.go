package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ queries.AgendaCache     = (*RedisAgendaCache)(nil)
	_ services.RefreshTrigger = (*RedisRefreshTrigger)(nil)
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Failed to ping test redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRedisAgendaCache_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewRedisAgendaCache(nil, 0).ttl)
	assert.Equal(t, time.Minute, NewRedisAgendaCache(nil, time.Minute).ttl)
	assert.Equal(t, "homebase:refresh:house-1", generationKey("house-1"))
}

func TestRedisAgendaCache_GetSet(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	c := NewRedisAgendaCache(client, time.Minute)
	key := queries.CacheKey{ContextID: uuid.NewString(), View: "day-chronological", Date: "2025-03-05", Generation: 3}

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`{"entries":[]}`)))

	val, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"entries":[]}`, string(val))

	key.Generation++
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "a new generation must miss")

	ttl, err := client.TTL(ctx, keyPrefix+queries.CacheKey{ContextID: key.ContextID, View: key.View, Date: key.Date, Generation: 3}.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisAgendaCache_SkipsOversizedSnapshots(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	c := NewRedisAgendaCache(client, time.Minute)
	key := queries.CacheKey{ContextID: uuid.NewString(), View: "sidebar", Date: "2025-03-05"}

	require.NoError(t, c.Set(ctx, key, []byte(strings.Repeat("x", SnapshotMaxSize+1))))

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRefreshTrigger(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	trigger := NewRedisRefreshTrigger(client)
	household := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, generationKey(household)) })

	gen, err := trigger.Generation(ctx, household)
	require.NoError(t, err)
	assert.Zero(t, gen)

	gen, err = trigger.Bump(ctx, household)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	_, err = trigger.Bump(ctx, household)
	require.NoError(t, err)

	gen, err = trigger.Generation(ctx, household)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)

	// a second trigger on the same Redis sees the same counter
	other, err := NewRedisRefreshTrigger(client).Generation(ctx, household)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), other)
}
