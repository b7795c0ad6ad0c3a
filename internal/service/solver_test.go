package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdnflow/internal/cache"
	"cdnflow/internal/flow"
	"cdnflow/internal/store"
	"cdnflow/internal/topology"
	"cdnflow/pkg/apperror"
	pkgcache "cdnflow/pkg/cache"
)

// fakeSolveRepo is a minimal in-memory store.SolveRepository, used to
// verify Solve persists a result under the exact ID it returns.
type fakeSolveRepo struct {
	mu   sync.Mutex
	recs map[uuid.UUID]*store.SolveRecord
}

func newFakeSolveRepo() *fakeSolveRepo {
	return &fakeSolveRepo{recs: make(map[uuid.UUID]*store.SolveRecord)}
}

func (f *fakeSolveRepo) Create(_ context.Context, r *store.SolveRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[r.ID] = r
	return nil
}

func (f *fakeSolveRepo) GetByID(_ context.Context, id uuid.UUID) (*store.SolveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return nil, store.ErrSolveNotFound
	}
	return rec, nil
}

func (f *fakeSolveRepo) ListByScenario(_ context.Context, _ uuid.UUID, _ *store.ListOptions) ([]*store.SolveRecord, error) {
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testScenario() *topology.Scenario {
	s := topology.New("fanout")
	src := s.AddNode("super-source", topology.KindSource)
	origin := s.AddNode("origin", topology.KindOrigin)
	c1 := s.AddNode("cache-1", topology.KindCache)
	c2 := s.AddNode("cache-2", topology.KindCache)
	sink := s.AddNode("super-sink", topology.KindSink)

	s.AddArc(src, origin, 100, 0)
	s.AddArc(origin, c1, 60, 2)
	s.AddArc(origin, c2, 60, 3)
	s.AddArc(c1, sink, 60, 1)
	s.AddArc(c2, sink, 60, 1)

	s.Source = src
	s.Sink = sink
	s.Demand = 70

	return s
}

func newTestService() *SolverService {
	return NewSolverService("test", discardLogger(), nil, nil, nil)
}

func TestNewSolverService(t *testing.T) {
	svc := newTestService()
	require.NotNil(t, svc)
	assert.Equal(t, "test", svc.version)
	assert.True(t, svc.IsHealthy())
	assert.True(t, svc.IsReady())
}

func TestSolverService_Solve_Success(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	result, err := svc.Solve(ctx, testScenario())

	require.NoError(t, err)
	assert.Equal(t, int64(70), result.TotalFlow)
	assert.True(t, result.Satisfied)
	// cheapest path (origin->cache-1->sink, unit cost 3) saturates at 60 units,
	// the remaining 10 units route via origin->cache-2->sink at unit cost 4.
	assert.Equal(t, int64(60*3+10*4), result.TotalCost)

	stats := svc.GetStats()
	assert.Equal(t, int64(1), stats.RequestsTotal)
	assert.Equal(t, int64(1), stats.RequestsSuccess)
	assert.Equal(t, int64(0), stats.RequestsFailed)
}

func TestSolverService_Solve_EmptyScenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Solve(ctx, topology.New("empty"))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrEmptyGraph)
}

func TestSolverService_Solve_InvalidSource(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	s := testScenario()
	s.Source = 99

	_, err := svc.Solve(ctx, s)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidSource)
}

func TestSolverService_Solve_SameEndpoints(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	s := testScenario()
	s.Sink = s.Source

	_, err := svc.Solve(ctx, s)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrSameEndpoints)
}

func TestSolverService_Solve_Infeasible(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	s := testScenario()
	s.Demand = 1000

	result, err := svc.Solve(ctx, s)

	require.NoError(t, err)
	assert.False(t, result.Satisfied)
	assert.Equal(t, int64(100), result.TotalFlow)
}

func TestSolverService_Solve_PersistsUnderReturnedID(t *testing.T) {
	solves := newFakeSolveRepo()
	svc := NewSolverService("test", discardLogger(), nil, solves, nil)
	ctx := context.Background()

	rec, err := svc.Solve(ctx, testScenario())
	require.NoError(t, err)

	stored, err := solves.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.TotalFlow, stored.TotalFlow)
	assert.Equal(t, rec.TotalCost, stored.TotalCost)
}

func TestSolverService_Solve_CacheHitStillPersists(t *testing.T) {
	memCache := pkgcache.NewMemoryCache(&pkgcache.Options{Backend: pkgcache.BackendMemory, DefaultTTL: time.Minute})
	solverCache := cache.NewSolverCache(memCache, time.Minute)
	solves := newFakeSolveRepo()
	svc := NewSolverService("test", discardLogger(), solverCache, solves, nil)
	ctx := context.Background()
	scn := testScenario()

	// seed the cache directly so this Solve call is guaranteed to take
	// the cache-hit branch rather than racing a background cache write.
	require.NoError(t, solverCache.Set(ctx, scn, DefaultAlgorithm, flow.Result{
		TotalFlow: 70, TotalCost: 200, Satisfied: true, ElapsedMs: 1,
	}, 0))

	rec, err := svc.Solve(ctx, scn)
	require.NoError(t, err)
	assert.Equal(t, int64(70), rec.TotalFlow)

	stored, err := solves.GetByID(ctx, rec.ID)
	require.NoError(t, err, "a cache-hit solve must still be persisted under the ID it returns")
	assert.Equal(t, int64(70), stored.TotalFlow)
}

func TestSolverService_Shutdown(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Solve(ctx, testScenario())
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, svc.Shutdown(shutdownCtx))
	assert.False(t, svc.IsHealthy())

	_, err = svc.Solve(context.Background(), testScenario())
	assert.Error(t, err)
}

func TestSolverService_ConcurrencyLimit(t *testing.T) {
	cfg := &ServiceConfig{MaxConcurrentSolves: 2, DefaultTimeout: time.Second}
	svc := NewSolverService("test", discardLogger(), nil, nil, cfg)
	ctx := context.Background()

	done := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, _ = svc.Solve(ctx, testScenario())
			done <- struct{}{}
		}()
	}

	for i := 0; i < 8; i++ {
		<-done
	}

	stats := svc.GetStats()
	assert.Equal(t, int64(8), stats.RequestsTotal)
}
