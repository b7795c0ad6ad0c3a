package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdnflow/internal/flow"
	"cdnflow/internal/topology"
	pkgcache "cdnflow/pkg/cache"
)

func buildTinyScenario() *topology.Scenario {
	s := topology.New("tiny")
	a := s.AddNode("a", topology.KindSource)
	b := s.AddNode("b", topology.KindSink)
	s.AddArc(a, b, 10, 2)
	s.Source, s.Sink, s.Demand = a, b, 5
	return s
}

func TestSolverCache_SetAndGet(t *testing.T) {
	backend, err := pkgcache.New(&pkgcache.Options{Backend: pkgcache.BackendMemory})
	require.NoError(t, err)
	defer backend.Close()

	sc := NewSolverCache(backend, time.Minute)
	ctx := context.Background()
	scenario := buildTinyScenario()

	result := flow.Result{TotalFlow: 5, TotalCost: 10, Satisfied: true, ElapsedMs: 1}
	require.NoError(t, sc.Set(ctx, scenario, "ssp", result, 0))

	cached, found, err := sc.Get(ctx, scenario, "ssp")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result, cached.ToResult())
}

func TestSolverCache_Miss(t *testing.T) {
	backend, err := pkgcache.New(&pkgcache.Options{Backend: pkgcache.BackendMemory})
	require.NoError(t, err)
	defer backend.Close()

	sc := NewSolverCache(backend, time.Minute)
	_, found, err := sc.Get(context.Background(), buildTinyScenario(), "ssp")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSolverCache_DifferentAlgorithmsDoNotCollide(t *testing.T) {
	backend, err := pkgcache.New(&pkgcache.Options{Backend: pkgcache.BackendMemory})
	require.NoError(t, err)
	defer backend.Close()

	sc := NewSolverCache(backend, time.Minute)
	ctx := context.Background()
	scenario := buildTinyScenario()

	require.NoError(t, sc.Set(ctx, scenario, "ssp", flow.Result{TotalCost: 10}, 0))
	require.NoError(t, sc.Set(ctx, scenario, "alt", flow.Result{TotalCost: 99}, 0))

	ssp, found, err := sc.Get(ctx, scenario, "ssp")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(10), ssp.TotalCost)

	alt, found, err := sc.Get(ctx, scenario, "alt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(99), alt.TotalCost)
}

func TestSolverCache_Invalidate(t *testing.T) {
	backend, err := pkgcache.New(&pkgcache.Options{Backend: pkgcache.BackendMemory})
	require.NoError(t, err)
	defer backend.Close()

	sc := NewSolverCache(backend, time.Minute)
	ctx := context.Background()
	scenario := buildTinyScenario()

	require.NoError(t, sc.Set(ctx, scenario, "ssp", flow.Result{TotalCost: 10}, 0))
	require.NoError(t, sc.Invalidate(ctx, scenario))

	_, found, err := sc.Get(ctx, scenario, "ssp")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSolverCache_InvalidateAll(t *testing.T) {
	backend, err := pkgcache.New(&pkgcache.Options{Backend: pkgcache.BackendMemory})
	require.NoError(t, err)
	defer backend.Close()

	sc := NewSolverCache(backend, time.Minute)
	ctx := context.Background()

	s1 := buildTinyScenario()
	s2 := buildTinyScenario()
	s2.Demand = 3

	require.NoError(t, sc.Set(ctx, s1, "ssp", flow.Result{TotalCost: 10}, 0))
	require.NoError(t, sc.Set(ctx, s2, "ssp", flow.Result{TotalCost: 6}, 0))

	n, err := sc.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
