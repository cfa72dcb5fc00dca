package observability

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// HealthStatus is the state of one dependency or of the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusDegraded:
		return 1
	case HealthStatusUnhealthy:
		return 2
	}
	return 0
}

// Worse returns the more severe of s and other.
func (s HealthStatus) Worse(other HealthStatus) HealthStatus {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// HealthCheckResult is the outcome of one check.
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) HealthCheckResult

// DefaultCheckTimeout bounds a single check.
const DefaultCheckTimeout = 2 * time.Second

// HealthRegistry holds the checks for the dependencies a process was wired
// with. Local mode registers only the database; Redis and RabbitMQ appear
// when configured.
type HealthRegistry struct {
	mu      sync.RWMutex
	checks  map[string]HealthChecker
	timeout time.Duration
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{
		checks:  make(map[string]HealthChecker),
		timeout: DefaultCheckTimeout,
	}
}

// SetTimeout changes the per-check deadline.
func (r *HealthRegistry) SetTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
}

// Register adds or replaces the check for a component.
func (r *HealthRegistry) Register(name string, check HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// Unregister removes a component's check.
func (r *HealthRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checks, name)
}

func (r *HealthRegistry) run(ctx context.Context, check HealthChecker, timeout time.Duration) HealthCheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := check(ctx)
	result.Duration = time.Since(start)
	result.Timestamp = time.Now()
	return result
}

// Check runs every check concurrently.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.RLock()
	checks := make(map[string]HealthChecker, len(r.checks))
	for name, check := range r.checks {
		checks[name] = check
	}
	timeout := r.timeout
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]HealthCheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := r.run(ctx, check, timeout)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// CheckOne runs the named check. found is false for unknown names.
func (r *HealthRegistry) CheckOne(ctx context.Context, name string) (result HealthCheckResult, found bool) {
	r.mu.RLock()
	check, ok := r.checks[name]
	timeout := r.timeout
	r.mu.RUnlock()
	if !ok {
		return HealthCheckResult{}, false
	}
	return r.run(ctx, check, timeout), true
}

// OverallHealth is the process-wide status: the worst individual result.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs every check and folds the results.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	checks := r.Check(ctx)
	status := HealthStatusHealthy
	for _, result := range checks {
		status = status.Worse(result.Status)
	}
	return OverallHealth{Status: status, Timestamp: time.Now(), Checks: checks}
}

// ToJSON serializes the overall health.
func (h OverallHealth) ToJSON() ([]byte, error) {
	return json.Marshal(h)
}

// PingCheck reports component healthy when ping succeeds and onFailure
// otherwise. Required dependencies fail as unhealthy, optional ones
// (cache, broker) as degraded.
func PingCheck(component string, onFailure HealthStatus, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  onFailure,
				Message: component + " unreachable: " + err.Error(),
			}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " reachable"}
	}
}
