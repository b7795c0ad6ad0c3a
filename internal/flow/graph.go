package flow

import "cdnflow/pkg/apperror"

// Graph is an append-only-arcs residual graph over dense node IDs in
// [0, N). It owns all arcs and the adjacency indices the shortest-path
// probe needs, but does not implement pathfinding itself.
type Graph struct {
	n    int
	arcs []Arc
	out  [][]int // out[u] = indices of arcs with Tail == u
	in   [][]int // in[v]  = indices of arcs with Head == v
}

// New allocates a residual graph with numNodes nodes and no arcs.
func New(numNodes int) *Graph {
	if numNodes < 0 {
		numNodes = 0
	}
	return &Graph{
		n:   numNodes,
		out: make([][]int, numNodes),
		in:  make([][]int, numNodes),
	}
}

// NumNodes returns the number of nodes the graph was constructed with.
func (g *Graph) NumNodes() int { return g.n }

// ArcCount returns the number of arcs inserted so far.
func (g *Graph) ArcCount() int { return len(g.arcs) }

func (g *Graph) inRange(n int) bool { return n >= 0 && n < g.n }

// AddArc appends a new arc (tail, head, capacity, unitCost) and returns
// its index. It fails with InvalidNode if tail or head is out of
// [0, N), SelfLoop if tail == head, or InvalidCapacity if capacity < 0.
func (g *Graph) AddArc(tail, head int, capacity, unitCost int64) (int, error) {
	if !g.inRange(tail) || !g.inRange(head) {
		return -1, apperror.New(apperror.CodeInvalidNode, "arc endpoint out of range").
			WithDetails("tail", tail).WithDetails("head", head).WithDetails("num_nodes", g.n)
	}
	if tail == head {
		return -1, apperror.New(apperror.CodeSelfLoop, "arcs must connect distinct nodes").
			WithDetails("node", tail)
	}
	arc, err := newArc(tail, head, capacity, unitCost)
	if err != nil {
		return -1, err
	}
	idx := len(g.arcs)
	g.arcs = append(g.arcs, arc)
	g.out[tail] = append(g.out[tail], idx)
	g.in[head] = append(g.in[head], idx)
	return idx, nil
}

// ArcAt returns a copy of the arc at index i, including its current flow.
func (g *Graph) ArcAt(i int) (Arc, error) {
	if i < 0 || i >= len(g.arcs) {
		return Arc{}, apperror.New(apperror.CodeInvalidArc, "arc index out of range").
			WithDetails("index", i)
	}
	return g.arcs[i], nil
}

// ArcFlow returns the current flow on the arc at index i.
func (g *Graph) ArcFlow(i int) (int64, error) {
	a, err := g.ArcAt(i)
	if err != nil {
		return 0, err
	}
	return a.Flow(), nil
}

// ForwardArcs returns the arc indices whose tail is n.
func (g *Graph) ForwardArcs(n int) []int { return g.out[n] }

// IncomingArcs returns the arc indices whose head is n.
func (g *Graph) IncomingArcs(n int) []int { return g.in[n] }

func (g *Graph) arc(i int) *Arc { return &g.arcs[i] }
