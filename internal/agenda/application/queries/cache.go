package queries

import (
	"context"
	"fmt"
)

// CacheKey identifies one rendered view. Bumping the refresh generation
// changes the key, so stale snapshots are never read back.
type CacheKey struct {
	ContextID  string
	View       string
	Date       string
	Generation uint64
}

// String renders the key as a flat cache key.
func (k CacheKey) String() string {
	return fmt.Sprintf("agenda:%s:%s:%s:%d", k.ContextID, k.View, k.Date, k.Generation)
}

// AgendaCache stores serialized agenda snapshots.
type AgendaCache interface {
	// Get returns false without error on a miss.
	Get(ctx context.Context, key CacheKey) ([]byte, bool, error)
	Set(ctx context.Context, key CacheKey, value []byte) error
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, CacheKey) ([]byte, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, CacheKey, []byte) error         { return nil }
