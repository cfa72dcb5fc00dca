// Package cache holds Redis-backed agenda snapshots and the shared refresh counter.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long an unused snapshot lingers after its generation moves on.
	DefaultTTL = 10 * time.Minute

	// SnapshotMaxSize is the largest snapshot written to Redis.
	SnapshotMaxSize = 1024 * 1024 // 1MB

	keyPrefix = "homebase:"
)

// RedisAgendaCache implements queries.AgendaCache.
// Keys are namespaced: homebase:agenda:{context}:{view}:{date}:{generation}
type RedisAgendaCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAgendaCache creates an agenda cache. A ttl <= 0 uses DefaultTTL.
func NewRedisAgendaCache(client *redis.Client, ttl time.Duration) *RedisAgendaCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisAgendaCache{client: client, ttl: ttl}
}

// Get returns the snapshot stored under key.
func (c *RedisAgendaCache) Get(ctx context.Context, key queries.CacheKey) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores a snapshot under key. Oversized snapshots are not cached.
func (c *RedisAgendaCache) Set(ctx context.Context, key queries.CacheKey, value []byte) error {
	if len(value) > SnapshotMaxSize {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+key.String(), value, c.ttl).Err()
}

// RedisRefreshTrigger implements services.RefreshTrigger with one INCR counter per household,
// so every process sharing the Redis instance observes the same generation.
type RedisRefreshTrigger struct {
	client *redis.Client
}

// NewRedisRefreshTrigger creates a shared refresh trigger.
func NewRedisRefreshTrigger(client *redis.Client) *RedisRefreshTrigger {
	return &RedisRefreshTrigger{client: client}
}

func generationKey(contextID string) string {
	return fmt.Sprintf("%srefresh:%s", keyPrefix, contextID)
}

// Bump increments and returns the generation for contextID.
func (t *RedisRefreshTrigger) Bump(ctx context.Context, contextID string) (uint64, error) {
	n, err := t.client.Incr(ctx, generationKey(contextID)).Result()
	if err != nil {
		return 0, fmt.Errorf("bump refresh generation: %w", err)
	}
	return uint64(n), nil
}

// Generation returns the current generation for contextID; zero when never bumped.
func (t *RedisRefreshTrigger) Generation(ctx context.Context, contextID string) (uint64, error) {
	n, err := t.client.Get(ctx, generationKey(contextID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read refresh generation: %w", err)
	}
	return n, nil
}
