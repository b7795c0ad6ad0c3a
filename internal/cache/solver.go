package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cdnflow/internal/flow"
	"cdnflow/internal/topology"
	pkgcache "cdnflow/pkg/cache"
)

// SolverCache is a typed wrapper around the generic pkg/cache backend,
// keyed by scenario topology and solve algorithm.
type SolverCache struct {
	cache      pkgcache.Cache
	defaultTTL time.Duration
}

// CachedResult is the JSON-serialized shape of a flow.Result stored
// under a solve key.
type CachedResult struct {
	TotalFlow  int64     `json:"total_flow"`
	TotalCost  int64     `json:"total_cost"`
	Satisfied  bool      `json:"satisfied"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	ComputedAt time.Time `json:"computed_at"`
}

// NewSolverCache creates a cache for solve results.
func NewSolverCache(cache pkgcache.Cache, defaultTTL time.Duration) *SolverCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolverCache{cache: cache, defaultTTL: defaultTTL}
}

// Get retrieves a cached solve result for the scenario and algorithm,
// if present. A corrupted entry is treated as a miss and removed.
func (sc *SolverCache) Get(ctx context.Context, s *topology.Scenario, algorithm string) (*CachedResult, bool, error) {
	key := BuildSolveKey(ScenarioHash(s), algorithm)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if err == pkgcache.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = sc.cache.Delete(ctx, key)
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores a solve result under the scenario/algorithm key.
func (sc *SolverCache) Set(ctx context.Context, s *topology.Scenario, algorithm string, result flow.Result, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	key := BuildSolveKey(ScenarioHash(s), algorithm)

	cached := CachedResult{
		TotalFlow:  result.TotalFlow,
		TotalCost:  result.TotalCost,
		Satisfied:  result.Satisfied,
		ElapsedMs:  result.ElapsedMs,
		ComputedAt: time.Now(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// Invalidate removes every cached algorithm result for a scenario.
func (sc *SolverCache) Invalidate(ctx context.Context, s *topology.Scenario) error {
	pattern := fmt.Sprintf("solve:*:%s", ScenarioHash(s))
	_, err := sc.cache.DeleteByPattern(ctx, pattern)
	return err
}

// InvalidateAll removes every cached solve result.
func (sc *SolverCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "solve:*")
}

// ToResult converts a cached entry back into a flow.Result.
func (r *CachedResult) ToResult() flow.Result {
	return flow.Result{
		TotalFlow: r.TotalFlow,
		TotalCost: r.TotalCost,
		Satisfied: r.Satisfied,
		ElapsedMs: r.ElapsedMs,
	}
}
