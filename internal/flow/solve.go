package flow

import (
	"log/slog"
	"time"

	"cdnflow/pkg/apperror"
)

// Result is the outcome of one Solve call.
type Result struct {
	TotalFlow int64
	TotalCost int64
	Satisfied bool
	ElapsedMs int64
}

// Solver drives Successive Shortest Paths over a Graph. It is not safe
// for concurrent use against the same Graph; the graph is owned
// exclusively for the duration of Solve.
type Solver struct {
	graph  *Graph
	logger *slog.Logger
}

// NewSolver wraps a graph for solving. logger may be nil; if non-nil it
// receives diagnostics when an internal safety bound is tripped.
func NewSolver(g *Graph, logger *slog.Logger) *Solver {
	return &Solver{graph: g, logger: logger}
}

// Solve computes the minimum-cost flow of at most demand units from
// source to sink via Successive Shortest Paths: repeatedly augment
// along a cheapest residual path (found by SPFA) until demand is met
// or no augmenting path remains.
//
// Precondition violations (InvalidNode, SameEndpoints, NegativeDemand)
// are raised immediately, before any arc mutation. Infeasibility (the
// demand cannot be fully met) is not an error: Solve returns normally
// with Satisfied == false and a valid partial flow.
func (s *Solver) Solve(source, sink int, demand int64) (Result, error) {
	start := time.Now()

	if source < 0 || source >= s.graph.n || sink < 0 || sink >= s.graph.n {
		return Result{}, apperror.New(apperror.CodeInvalidNode, "source or sink out of range").
			WithDetails("source", source).WithDetails("sink", sink).WithDetails("num_nodes", s.graph.n)
	}
	if source == sink {
		return Result{}, apperror.ErrSameEndpoints
	}
	if demand < 0 {
		return Result{}, apperror.ErrNegativeDemand
	}
	if demand == 0 {
		return Result{Satisfied: true, ElapsedMs: elapsedMs(start)}, nil
	}

	scratch := newProbeScratch(s.graph.n)

	var totalFlow, totalCost int64
	for totalFlow < demand {
		remaining := demand - totalFlow
		amount, unitCost := probe(s.graph, scratch, source, sink, remaining, s.logger)
		if amount == 0 {
			return Result{
				TotalFlow: totalFlow,
				TotalCost: totalCost,
				Satisfied: false,
				ElapsedMs: elapsedMs(start),
			}, nil
		}
		totalFlow += amount
		totalCost += amount * unitCost
	}

	return Result{
		TotalFlow: totalFlow,
		TotalCost: totalCost,
		Satisfied: totalFlow == demand,
		ElapsedMs: elapsedMs(start),
	}, nil
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
