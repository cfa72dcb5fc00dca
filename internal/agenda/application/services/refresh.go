package services

import (
	"context"
	"sync"
)

// RefreshTrigger is a monotonically increasing counter per household. A bump
// tells views that their agenda is stale.
type RefreshTrigger interface {
	Bump(ctx context.Context, contextID string) (uint64, error)
	Generation(ctx context.Context, contextID string) (uint64, error)
}

// MemoryRefreshTrigger keeps generations in process memory.
type MemoryRefreshTrigger struct {
	mu          sync.Mutex
	generations map[string]uint64
}

// NewMemoryRefreshTrigger creates an in-memory trigger.
func NewMemoryRefreshTrigger() *MemoryRefreshTrigger {
	return &MemoryRefreshTrigger{generations: make(map[string]uint64)}
}

// Bump increments and returns the generation for contextID.
func (t *MemoryRefreshTrigger) Bump(_ context.Context, contextID string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generations[contextID]++
	return t.generations[contextID], nil
}

// Generation returns the current generation for contextID.
func (t *MemoryRefreshTrigger) Generation(_ context.Context, contextID string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generations[contextID], nil
}

// RefreshWatcher is the single consumer of a trigger for one view. It reports
// each generation change exactly once.
type RefreshWatcher struct {
	trigger   RefreshTrigger
	contextID string
	seen      uint64
	primed    bool
}

// NewRefreshWatcher creates a watcher for contextID.
func NewRefreshWatcher(trigger RefreshTrigger, contextID string) *RefreshWatcher {
	return &RefreshWatcher{trigger: trigger, contextID: contextID}
}

// Poll reports whether the generation moved since the previous call.
// The first call only records the current generation.
func (w *RefreshWatcher) Poll(ctx context.Context) (bool, error) {
	gen, err := w.trigger.Generation(ctx, w.contextID)
	if err != nil {
		return false, err
	}
	if !w.primed {
		w.primed = true
		w.seen = gen
		return false, nil
	}
	if gen == w.seen {
		return false, nil
	}
	w.seen = gen
	return true, nil
}
