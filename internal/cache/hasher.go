// Package cache builds deterministic cache keys for CDN routing
// scenarios and wraps the generic pkg/cache backend with a typed
// solve-result cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"cdnflow/internal/topology"
)

// ScenarioHash returns a short, deterministic hex digest of a
// scenario's topology and solve request, independent of insertion
// order. Two scenarios describing the same problem hash identically.
func ScenarioHash(s *topology.Scenario) string {
	sum := sha256.Sum256(s.Canonical())
	return hex.EncodeToString(sum[:])[:16]
}

// BuildSolveKey composes the cache key for a scenario's solve result.
func BuildSolveKey(scenarioHash, algorithm string) string {
	return fmt.Sprintf("solve:%s:%s", algorithm, scenarioHash)
}

// QuickHash is a shorter, lower-collision-resistance digest used for
// log correlation rather than cache keys.
func QuickHash(s *topology.Scenario) string {
	sum := sha256.Sum256(s.Canonical())
	return hex.EncodeToString(sum[:])[:8]
}
