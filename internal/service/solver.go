// Package service orchestrates a solve request end to end: cache
// lookup, concurrency control over internal/flow, result persistence,
// and the telemetry/metrics surrounding all of it.
package service

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cdnflow/internal/cache"
	"cdnflow/internal/flow"
	"cdnflow/internal/metrics"
	"cdnflow/internal/store"
	"cdnflow/internal/telemetry"
	"cdnflow/internal/topology"
	"cdnflow/pkg/apperror"
)

// DefaultAlgorithm names the only solving strategy internal/flow
// implements. It exists as a cache/metrics label, not a dispatch key.
const DefaultAlgorithm = "ssp"

// ServiceConfig controls the orchestration layer's concurrency and
// timeout behavior. It does not affect solve semantics.
type ServiceConfig struct {
	// MaxConcurrentSolves caps the number of Solve calls running at
	// once. Requests beyond the limit block until a slot frees up or
	// the request's context is cancelled.
	MaxConcurrentSolves int

	// DefaultTimeout is the deadline Solve puts on every call's context
	// once the scenario has passed validation. It bounds the wait for a
	// solver slot and the store write that follows; the flow computation
	// itself does not observe it.
	DefaultTimeout time.Duration
}

// DefaultServiceConfig mirrors runtime.NumCPU()*2 in-flight solves, the
// same heuristic the teacher's solver service uses.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxConcurrentSolves: runtime.NumCPU() * 2,
		DefaultTimeout:      30 * time.Second,
	}
}

type serviceStats struct {
	requestsTotal   atomic.Int64
	requestsActive  atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
}

// Stats is a point-in-time snapshot of SolverService activity.
type Stats struct {
	RequestsTotal   int64
	RequestsActive  int64
	RequestsSuccess int64
	RequestsFailed  int64
	CacheHits       int64
	CacheMisses     int64
}

// SolverService wraps internal/flow with the concerns a standalone
// core solver has no business owning: backpressure, caching,
// persistence, and observability.
//
// Safe for concurrent use. Each Solve call builds and owns its own
// flow.Graph, so distinct requests never contend on solver state —
// only on the semaphore that bounds how many run at once.
type SolverService struct {
	version     string
	logger      *slog.Logger
	metrics     *metrics.Metrics
	solverCache *cache.SolverCache
	solves      store.SolveRepository
	config      *ServiceConfig

	sem chan struct{}

	stats serviceStats

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewSolverService wires a SolverService from its dependencies. cache
// and solves may each be nil: a nil cache disables cache-first
// lookups, and a nil solve repository disables persistence, returning
// a solve record that exists only in memory — useful for tests that
// only exercise the solve path. Scenario persistence is the HTTP
// layer's responsibility: by the time a scenario reaches Solve it has
// already been created and fetched from internal/store.
func NewSolverService(
	version string,
	logger *slog.Logger,
	solverCache *cache.SolverCache,
	solves store.SolveRepository,
	config *ServiceConfig,
) *SolverService {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if config.MaxConcurrentSolves <= 0 {
		config.MaxConcurrentSolves = DefaultServiceConfig().MaxConcurrentSolves
	}

	return &SolverService{
		version:     version,
		logger:      logger,
		metrics:     metrics.Get(),
		solverCache: solverCache,
		solves:      solves,
		config:      config,
		sem:         make(chan struct{}, config.MaxConcurrentSolves),
		shutdownCh:  make(chan struct{}),
	}
}

// Solve resolves a scenario to a persisted store.SolveRecord: cache
// first, then a fresh computation through internal/flow if the cache
// misses. Either way the result is written to internal/store
// synchronously, under the ID returned — callers can GET
// /v1/solves/{id} (or a report for it) immediately with the ID that
// comes back here. Only the cache write-through for a freshly computed
// result happens off the request path; a cache hit needs no re-caching.
//
// Thread-safe; may be called concurrently from multiple goroutines
// handling independent HTTP requests.
func (s *SolverService) Solve(ctx context.Context, scn *topology.Scenario) (*store.SolveRecord, error) {
	if err := s.trackRequest(); err != nil {
		return nil, err
	}
	defer s.untrackRequest()

	ctx, span := telemetry.StartSpan(ctx, "SolverService.Solve",
		trace.WithAttributes(telemetry.ScenarioAttributes(
			len(scn.Nodes), len(scn.Arcs), strconv.Itoa(scn.Source), strconv.Itoa(scn.Sink),
		)...),
	)
	defer span.End()

	if cached, found := s.checkCache(ctx, scn, span); found {
		return s.recordSolve(ctx, scn, cached, false)
	}

	if err := scn.Validate(); err != nil {
		s.stats.requestsFailed.Add(1)
		telemetry.SetError(ctx, err)
		return nil, err
	}

	timeout := s.config.DefaultTimeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		s.stats.requestsFailed.Add(1)
		return nil, apperror.New(apperror.CodeTimeout, "timeout waiting for a solver slot")
	}
	defer func() { <-s.sem }()

	result, err := s.executeSolve(ctx, scn, span)
	if err != nil {
		return nil, err
	}

	return s.recordSolve(ctx, scn, result, true)
}

func (s *SolverService) trackRequest() error {
	select {
	case <-s.shutdownCh:
		return apperror.New(apperror.CodeInternal, "service is shutting down")
	default:
	}

	s.wg.Add(1)
	s.stats.requestsTotal.Add(1)
	s.stats.requestsActive.Add(1)
	return nil
}

func (s *SolverService) untrackRequest() {
	s.stats.requestsActive.Add(-1)
	s.wg.Done()
}

func (s *SolverService) checkCache(ctx context.Context, scn *topology.Scenario, span trace.Span) (flow.Result, bool) {
	if s.solverCache == nil {
		return flow.Result{}, false
	}

	cached, found, err := s.solverCache.Get(ctx, scn, DefaultAlgorithm)
	if err != nil || !found {
		s.stats.cacheMisses.Add(1)
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
		span.SetAttributes(telemetry.CacheAttributes(false)...)
		return flow.Result{}, false
	}

	s.stats.cacheHits.Add(1)
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(true)
	}
	span.SetAttributes(telemetry.CacheAttributes(true)...)
	telemetry.AddEvent(ctx, "cache_hit", attribute.Int64("total_flow", cached.TotalFlow))

	return cached.ToResult(), true
}

func (s *SolverService) executeSolve(ctx context.Context, scn *topology.Scenario, span trace.Span) (flow.Result, error) {
	// persistence of the result lives in recordSolve, not here: the scenario
	// itself is already durable by the time Solve is called (callers resolve
	// it from storage first), so this stage only computes the flow.
	start := time.Now()

	g, err := scn.BuildGraph()
	if err != nil {
		s.stats.requestsFailed.Add(1)
		telemetry.SetError(ctx, err)
		return flow.Result{}, err
	}

	solver := flow.NewSolver(g, s.logger)
	result, err := solver.Solve(scn.Source, scn.Sink, scn.Demand)
	elapsed := time.Since(start)

	if err != nil {
		s.stats.requestsFailed.Add(1)
		telemetry.SetError(ctx, err)
		if s.metrics != nil {
			s.metrics.RecordSolveOperation(DefaultAlgorithm, false, elapsed, 0)
		}
		return flow.Result{}, err
	}

	s.stats.requestsSuccess.Add(1)
	span.SetAttributes(
		attribute.Int64("total_flow", result.TotalFlow),
		attribute.Int64("total_cost", result.TotalCost),
		attribute.Bool("satisfied", result.Satisfied),
	)

	if s.metrics != nil {
		s.metrics.RecordSolveOperation(DefaultAlgorithm, true, elapsed, float64(result.TotalFlow))
		s.metrics.RecordScenarioSize("solve", len(scn.Nodes), len(scn.Arcs))
	}

	return result, nil
}

// recordSolve assigns a solve its durable identity: it builds the
// store.SolveRecord for result and, if a solve repository is wired,
// creates it synchronously so the ID handed back to the caller is
// guaranteed to resolve on a subsequent GET. cacheResult requests an
// off-request-path write-through to solverCache for a freshly computed
// result; a cache hit is already cached and passes false.
func (s *SolverService) recordSolve(ctx context.Context, scn *topology.Scenario, result flow.Result, cacheResult bool) (*store.SolveRecord, error) {
	rec := &store.SolveRecord{
		ID:            uuid.New(),
		ScenarioID:    scn.ID,
		Algorithm:     DefaultAlgorithm,
		TotalFlow:     result.TotalFlow,
		TotalCost:     result.TotalCost,
		Satisfied:     result.Satisfied,
		ElapsedTimeMs: result.ElapsedMs,
		CreatedAt:     time.Now(),
	}

	if s.solves != nil {
		if err := s.solves.Create(ctx, rec); err != nil {
			s.logger.Error("failed to persist solve result", "error", err, "scenario_id", scn.ID)
			return nil, apperror.New(apperror.CodeInternal, "failed to persist solve result")
		}
	}

	if cacheResult && s.solverCache != nil {
		s.cacheAsync(scn, result)
	}

	return rec, nil
}

// cacheAsync writes a freshly computed result to solverCache off the
// request path. A cache-write failure is logged and does not fail the
// solve: the caller already has their durable record.
func (s *SolverService) cacheAsync(scn *topology.Scenario, result flow.Result) {
	select {
	case <-s.shutdownCh:
		return
	default:
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		select {
		case <-s.shutdownCh:
			return
		default:
		}

		if err := s.solverCache.Set(ctx, scn, DefaultAlgorithm, result, 0); err != nil {
			s.logger.Warn("failed to cache solve result", "error", err)
		}
	}()
}

// GetStats returns a snapshot of the service's request counters.
func (s *SolverService) GetStats() Stats {
	return Stats{
		RequestsTotal:   s.stats.requestsTotal.Load(),
		RequestsActive:  s.stats.requestsActive.Load(),
		RequestsSuccess: s.stats.requestsSuccess.Load(),
		RequestsFailed:  s.stats.requestsFailed.Load(),
		CacheHits:       s.stats.cacheHits.Load(),
		CacheMisses:     s.stats.cacheMisses.Load(),
	}
}

// IsHealthy reports whether the service is still accepting requests.
func (s *SolverService) IsHealthy() bool {
	select {
	case <-s.shutdownCh:
		return false
	default:
		return true
	}
}

// IsReady reports whether the service has spare solver capacity,
// beyond merely being healthy. Used to gate readiness probes
// separately from liveness.
func (s *SolverService) IsReady() bool {
	if !s.IsHealthy() {
		return false
	}
	active := s.stats.requestsActive.Load()
	return active < int64(s.config.MaxConcurrentSolves)*9/10
}

// Shutdown stops accepting new requests and waits for in-flight solves
// and their background cache-write goroutines to finish, or for ctx to
// expire first.
func (s *SolverService) Shutdown(ctx context.Context) error {
	var err error

	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			s.logger.Info("all requests completed gracefully")
		case <-ctx.Done():
			err = ctx.Err()
			s.logger.Warn("shutdown timed out, requests may have been interrupted",
				"active_requests", s.stats.requestsActive.Load())
		}
	})

	return err
}
