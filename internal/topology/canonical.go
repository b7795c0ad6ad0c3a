package topology

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical returns a deterministic byte representation of the
// scenario, independent of node/arc insertion order, suitable for
// hashing into a cache key. Nodes are emitted sorted by ID (already
// dense and stable); arcs are sorted by (tail, head, capacity,
// unit_cost) so that two scenarios describing the same topology
// produce the same bytes regardless of how their arcs were appended.
func (s *Scenario) Canonical() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "s:%d,t:%d,d:%d;", s.Source, s.Sink, s.Demand)

	nodes := make([]Node, len(s.Nodes))
	copy(nodes, s.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		fmt.Fprintf(&b, "n:%d:%s;", n.ID, n.Kind)
	}

	arcs := make([]Arc, len(s.Arcs))
	copy(arcs, s.Arcs)
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].Tail != arcs[j].Tail {
			return arcs[i].Tail < arcs[j].Tail
		}
		if arcs[i].Head != arcs[j].Head {
			return arcs[i].Head < arcs[j].Head
		}
		if arcs[i].Capacity != arcs[j].Capacity {
			return arcs[i].Capacity < arcs[j].Capacity
		}
		return arcs[i].UnitCost < arcs[j].UnitCost
	})
	for _, a := range arcs {
		fmt.Fprintf(&b, "e:%d:%d:%d:%d;", a.Tail, a.Head, a.Capacity, a.UnitCost)
	}

	return []byte(b.String())
}
