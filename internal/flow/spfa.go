package flow

import "log/slog"

// infinity is the distance sentinel. Chosen as (max signed int64)/2 so
// that d[u] + arc_cost never wraps even when both addends sit near the
// sentinel.
const infinity int64 = (1<<63 - 1) / 2

// relaxationFactor bounds SPFA relaxation pops at relaxationFactor*N^2;
// exceeding it signals a negative-cost cycle in the residual graph,
// which correct use of the solver never produces.
const relaxationFactor = 10

// probeScratch holds the per-probe working state, reusable across
// probes on the same graph to avoid reallocating on every augmentation.
type probeScratch struct {
	dist      []int64
	parentArc []int
	reverse   []bool
	inQueue   []bool
	queue     []int
}

func newProbeScratch(n int) *probeScratch {
	return &probeScratch{
		dist:      make([]int64, n),
		parentArc: make([]int, n),
		reverse:   make([]bool, n),
		inQueue:   make([]bool, n),
		queue:     make([]int, 0, n),
	}
}

func (s *probeScratch) reset() {
	for i := range s.dist {
		s.dist[i] = infinity
		s.parentArc[i] = -1
		s.reverse[i] = false
		s.inQueue[i] = false
	}
	s.queue = s.queue[:0]
}

// probe runs one SPFA search for a cheapest source->sink path in the
// current residual graph, capped at cap, and augments the graph's arc
// flows along it. It returns the bottleneck amount actually pushed and
// the per-unit cost of the path; both are zero if no path exists.
//
// logger receives a diagnostic if a safety bound is exceeded; this
// indicates a negative-cost cycle or a corrupted parent chain and
// should never happen against a correctly constructed graph.
func probe(g *Graph, scratch *probeScratch, source, sink int, cap int64, logger *slog.Logger) (amount int64, unitCost int64) {
	scratch.reset()
	scratch.dist[source] = 0
	scratch.queue = append(scratch.queue, source)
	scratch.inQueue[source] = true

	n := g.n
	maxRelaxations := relaxationFactor * n * n
	relaxations := 0

	for len(scratch.queue) > 0 {
		if relaxations > maxRelaxations {
			if logger != nil {
				logger.Warn("spfa relaxation bound exceeded, assuming negative-cost cycle",
					slog.Int("num_nodes", n), slog.Int("bound", maxRelaxations))
			}
			return 0, 0
		}

		u := scratch.queue[0]
		scratch.queue = scratch.queue[1:]
		scratch.inQueue[u] = false
		relaxations++

		du := scratch.dist[u]

		for _, ai := range g.ForwardArcs(u) {
			a := g.arc(ai)
			if a.ForwardResidualCapacity() <= 0 {
				continue
			}
			v := a.Head
			nd := du + a.ForwardResidualCost()
			if nd < scratch.dist[v] {
				scratch.dist[v] = nd
				scratch.parentArc[v] = ai
				scratch.reverse[v] = false
				if !scratch.inQueue[v] {
					scratch.queue = append(scratch.queue, v)
					scratch.inQueue[v] = true
				}
			}
		}

		for _, ai := range g.IncomingArcs(u) {
			a := g.arc(ai)
			if a.ReverseResidualCapacity() <= 0 {
				continue
			}
			v := a.Tail
			nd := du + a.ReverseResidualCost()
			if nd < scratch.dist[v] {
				scratch.dist[v] = nd
				scratch.parentArc[v] = ai
				scratch.reverse[v] = true
				if !scratch.inQueue[v] {
					scratch.queue = append(scratch.queue, v)
					scratch.inQueue[v] = true
				}
			}
		}
	}

	if scratch.dist[sink] >= infinity {
		return 0, 0
	}

	bottleneck := cap
	steps := 0
	maxSteps := n + 1
	for v := sink; v != source; {
		steps++
		if steps > maxSteps {
			if logger != nil {
				logger.Warn("spfa path walk bound exceeded, assuming corrupted parent chain",
					slog.Int("num_nodes", n))
			}
			return 0, 0
		}
		ai := scratch.parentArc[v]
		if ai < 0 {
			if logger != nil {
				logger.Warn("spfa parent chain broken before reaching source")
			}
			return 0, 0
		}
		a := g.arc(ai)
		if scratch.reverse[v] {
			if a.ReverseResidualCapacity() < bottleneck {
				bottleneck = a.ReverseResidualCapacity()
			}
			v = a.Head
		} else {
			if a.ForwardResidualCapacity() < bottleneck {
				bottleneck = a.ForwardResidualCapacity()
			}
			v = a.Tail
		}
	}

	for v := sink; v != source; {
		ai := scratch.parentArc[v]
		a := g.arc(ai)
		if scratch.reverse[v] {
			a.Cancel(bottleneck)
			v = a.Head
		} else {
			a.Augment(bottleneck)
			v = a.Tail
		}
	}

	return bottleneck, scratch.dist[sink]
}
