package flow

import (
	"testing"

	"cdnflow/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve_LinearChain(t *testing.T) {
	g := New(3)
	_, err := g.AddArc(0, 1, 5, 1)
	require.NoError(t, err)
	_, err = g.AddArc(1, 2, 3, 1)
	require.NoError(t, err)

	result, err := NewSolver(g, nil).Solve(0, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.TotalFlow)
	assert.Equal(t, int64(6), result.TotalCost)
	assert.False(t, result.Satisfied)
}

func TestSolve_ParallelPathsCostMatters(t *testing.T) {
	g := New(4)
	mustAddArc(t, g, 0, 1, 10, 1)
	mustAddArc(t, g, 0, 2, 10, 5)
	mustAddArc(t, g, 1, 3, 10, 1)
	mustAddArc(t, g, 2, 3, 10, 1)

	result, err := NewSolver(g, nil).Solve(0, 3, 15)
	require.NoError(t, err)

	// Cheap path 0->1->3 costs 2/unit and has a 10-unit bottleneck;
	// expensive path 0->2->3 costs 6/unit. 10 units at 2 plus 5 units
	// at 6 is 20+30=50, which is the unique minimum for volume 15 here
	// since both source arcs (cap 10 each) must be used to reach 15.
	assert.Equal(t, int64(15), result.TotalFlow)
	assert.Equal(t, int64(50), result.TotalCost)
	assert.True(t, result.Satisfied)
}

func TestSolve_CancellationRequired(t *testing.T) {
	g := New(4)
	mustAddArc(t, g, 0, 1, 1, 1)
	mustAddArc(t, g, 0, 2, 1, 100)
	mustAddArc(t, g, 1, 2, 1, 1)
	mustAddArc(t, g, 1, 3, 1, 1)
	mustAddArc(t, g, 2, 3, 1, 1)

	result, err := NewSolver(g, nil).Solve(0, 3, 2)
	require.NoError(t, err)

	// Every arc here has capacity 1, which pins the unique flow of value
	// 2 uniquely: both source arcs must saturate, which forces all of
	// node 1's output through 1->3 (1->2 would overflow node 2's single
	// outgoing arc), giving 0->1=1, 0->2=1, 1->3=1, 2->3=1: cost
	// 1+100+1+1=103. The first augmenting path (0->1->3, cost 2) uses
	// the 1->3 arc; the second (0->2->3, cost 101) is forced to go
	// through the expensive 0->2 arc, and no cancellation of the first
	// path's arcs is actually needed to reach this unique assignment.
	assert.Equal(t, int64(2), result.TotalFlow)
	assert.Equal(t, int64(103), result.TotalCost)
	assert.True(t, result.Satisfied)
}

func TestSolve_CDNFanOut(t *testing.T) {
	g := New(8)
	mustAddArc(t, g, 0, 1, 100, 0)
	mustAddArc(t, g, 1, 2, 50, 5)
	mustAddArc(t, g, 1, 3, 50, 3)
	mustAddArc(t, g, 2, 4, 30, 2)
	mustAddArc(t, g, 2, 5, 30, 3)
	mustAddArc(t, g, 3, 5, 30, 1)
	mustAddArc(t, g, 3, 6, 30, 4)
	mustAddArc(t, g, 4, 7, 20, 0)
	mustAddArc(t, g, 5, 7, 30, 0)
	mustAddArc(t, g, 6, 7, 20, 0)

	result, err := NewSolver(g, nil).Solve(0, 7, 70)
	require.NoError(t, err)

	// The three sink-incoming arcs (4->7, 5->7, 6->7) sum to exactly 70,
	// so every feasible flow of value 70 saturates all three; the only
	// freedom is how cache 2's and cache 3's traffic splits across the
	// shared 3->5 / 2->5 arcs into edge-server 5, and the cheapest split
	// routes all of it through 3->5 (cost 1) rather than 2->5 (cost 3).
	assert.Equal(t, int64(70), result.TotalFlow)
	assert.True(t, result.Satisfied)
	assert.Equal(t, int64(400), result.TotalCost)
}

func TestSolve_InfeasibleBottleneck(t *testing.T) {
	g := New(3)
	mustAddArc(t, g, 0, 1, 5, 1)
	mustAddArc(t, g, 1, 2, 3, 1)

	result, err := NewSolver(g, nil).Solve(0, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.TotalFlow)
	assert.Equal(t, int64(6), result.TotalCost)
	assert.False(t, result.Satisfied)
}

func TestSolve_ZeroDemand(t *testing.T) {
	g := New(2)
	mustAddArc(t, g, 0, 1, 5, 1)

	result, err := NewSolver(g, nil).Solve(0, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.TotalFlow)
	assert.Equal(t, int64(0), result.TotalCost)
	assert.True(t, result.Satisfied)

	flow, err := g.ArcFlow(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flow, "zero demand must not mutate any arc")
}

func TestSolve_SourceEqualsSink(t *testing.T) {
	g := New(2)
	mustAddArc(t, g, 0, 1, 5, 1)

	_, err := NewSolver(g, nil).Solve(0, 0, 5)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeSameEndpoints))
}

func TestSolve_NegativeDemand(t *testing.T) {
	g := New(2)
	mustAddArc(t, g, 0, 1, 5, 1)

	_, err := NewSolver(g, nil).Solve(0, 1, -1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNegativeDemand))
}

func TestSolve_InvalidNode(t *testing.T) {
	g := New(2)
	mustAddArc(t, g, 0, 1, 5, 1)

	_, err := NewSolver(g, nil).Solve(0, 5, 1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidNode))
}

func TestSolve_Disconnected(t *testing.T) {
	g := New(4)
	mustAddArc(t, g, 0, 1, 5, 1)
	mustAddArc(t, g, 2, 3, 5, 1)

	result, err := NewSolver(g, nil).Solve(0, 3, 5)
	require.NoError(t, err)

	assert.False(t, result.Satisfied)
	assert.Equal(t, int64(0), result.TotalFlow)
}

func TestSolve_ZeroCapacityArcNeverCarriesFlow(t *testing.T) {
	g := New(3)
	mustAddArc(t, g, 0, 1, 0, 1)
	mustAddArc(t, g, 0, 1, 5, 2)
	mustAddArc(t, g, 1, 2, 5, 1)

	_, err := NewSolver(g, nil).Solve(0, 2, 5)
	require.NoError(t, err)

	flow, err := g.ArcFlow(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flow)
}

func TestAddArc_Errors(t *testing.T) {
	g := New(3)

	_, err := g.AddArc(0, 5, 1, 1)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidNode))

	_, err = g.AddArc(1, 1, 1, 1)
	assert.True(t, apperror.Is(err, apperror.CodeSelfLoop))

	_, err = g.AddArc(0, 1, -1, 1)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidCapacity))
}

func TestArcAt_InvalidIndex(t *testing.T) {
	g := New(2)
	mustAddArc(t, g, 0, 1, 1, 1)

	_, err := g.ArcAt(5)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArc))
}

// TestConservationAndCapacityInvariants checks invariants 1 and 2 from
// the testable-properties list on the CDN fan-out scenario.
func TestConservationAndCapacityInvariants(t *testing.T) {
	g := New(8)
	mustAddArc(t, g, 0, 1, 100, 0)
	mustAddArc(t, g, 1, 2, 50, 5)
	mustAddArc(t, g, 1, 3, 50, 3)
	mustAddArc(t, g, 2, 4, 30, 2)
	mustAddArc(t, g, 2, 5, 30, 3)
	mustAddArc(t, g, 3, 5, 30, 1)
	mustAddArc(t, g, 3, 6, 30, 4)
	mustAddArc(t, g, 4, 7, 20, 0)
	mustAddArc(t, g, 5, 7, 30, 0)
	mustAddArc(t, g, 6, 7, 20, 0)

	source, sink := 0, 7
	_, err := NewSolver(g, nil).Solve(source, sink, 70)
	require.NoError(t, err)

	inflow := make(map[int]int64)
	outflow := make(map[int]int64)
	var totalCost int64
	for i := 0; i < g.ArcCount(); i++ {
		a, err := g.ArcAt(i)
		require.NoError(t, err)
		require.GreaterOrEqual(t, a.Flow(), int64(0))
		require.LessOrEqual(t, a.Flow(), a.Capacity)
		outflow[a.Tail] += a.Flow()
		inflow[a.Head] += a.Flow()
		totalCost += a.Flow() * a.UnitCost
	}

	for node := 0; node < g.NumNodes(); node++ {
		if node == source || node == sink {
			continue
		}
		assert.Equal(t, inflow[node], outflow[node], "conservation at node %d", node)
	}
}

// TestIdempotence checks invariant 6: solving two independently built
// copies of the same graph with the same parameters yields identical
// totals.
func TestIdempotence(t *testing.T) {
	build := func() *Graph {
		g := New(4)
		mustAddArc(t, g, 0, 1, 10, 1)
		mustAddArc(t, g, 0, 2, 10, 5)
		mustAddArc(t, g, 1, 3, 10, 1)
		mustAddArc(t, g, 2, 3, 10, 1)
		return g
	}

	r1, err := NewSolver(build(), nil).Solve(0, 3, 15)
	require.NoError(t, err)
	r2, err := NewSolver(build(), nil).Solve(0, 3, 15)
	require.NoError(t, err)

	assert.Equal(t, r1.TotalFlow, r2.TotalFlow)
	assert.Equal(t, r1.TotalCost, r2.TotalCost)
}

// TestMonotoneDemand checks invariant 7: total cost is non-decreasing
// in demand, up to the max flow value.
func TestMonotoneDemand(t *testing.T) {
	build := func() *Graph {
		g := New(4)
		mustAddArc(t, g, 0, 1, 10, 1)
		mustAddArc(t, g, 0, 2, 10, 5)
		mustAddArc(t, g, 1, 3, 10, 1)
		mustAddArc(t, g, 2, 3, 10, 1)
		return g
	}

	var prevCost int64
	for demand := int64(0); demand <= 20; demand += 2 {
		result, err := NewSolver(build(), nil).Solve(0, 3, demand)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.TotalCost, prevCost)
		prevCost = result.TotalCost
	}
}

func mustAddArc(t *testing.T, g *Graph, tail, head int, capacity, unitCost int64) int {
	t.Helper()
	idx, err := g.AddArc(tail, head, capacity, unitCost)
	require.NoError(t, err)
	return idx
}
