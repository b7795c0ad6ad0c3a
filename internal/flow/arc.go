// Package flow implements a minimum-cost maximum-flow solver over a
// dense-integer-ID residual graph, specialised for multi-layer CDN
// routing topologies (origin -> caches -> edge-servers -> clients).
package flow

import "cdnflow/pkg/apperror"

// Arc is one directed connection in the flow network: an immutable
// (tail, head, capacity, unitCost) tuple paired with a mutable flow.
//
// Forward residual capacity is capacity-flow at unitCost; reverse
// residual capacity is flow at -unitCost.
type Arc struct {
	Tail     int
	Head     int
	Capacity int64
	UnitCost int64
	flow     int64
}

// newArc validates and constructs an Arc. Node-range and self-loop
// checks are the caller's (Graph.AddArc's) responsibility; newArc only
// owns the capacity invariant.
func newArc(tail, head int, capacity, unitCost int64) (Arc, error) {
	if capacity < 0 {
		return Arc{}, apperror.New(apperror.CodeInvalidCapacity, "arc capacity must be non-negative").
			WithDetails("capacity", capacity)
	}
	return Arc{Tail: tail, Head: head, Capacity: capacity, UnitCost: unitCost}, nil
}

// Flow returns the arc's current flow.
func (a *Arc) Flow() int64 { return a.flow }

// ForwardResidualCapacity is the capacity still available in the arc's
// own direction.
func (a *Arc) ForwardResidualCapacity() int64 { return a.Capacity - a.flow }

// ReverseResidualCapacity is the capacity available by cancelling flow
// already pushed along this arc.
func (a *Arc) ReverseResidualCapacity() int64 { return a.flow }

// ForwardResidualCost is the per-unit cost of pushing flow forward.
func (a *Arc) ForwardResidualCost() int64 { return a.UnitCost }

// ReverseResidualCost is the per-unit cost of cancelling flow, the
// negation of the forward cost.
func (a *Arc) ReverseResidualCost() int64 { return -a.UnitCost }

// Augment adds delta to the arc's flow. The caller (the shortest-path
// probe) is responsible for supplying a delta that keeps flow within
// [0, Capacity]; Augment does not re-check the invariant.
func (a *Arc) Augment(delta int64) { a.flow += delta }

// Cancel subtracts delta from the arc's flow.
func (a *Arc) Cancel(delta int64) { a.flow -= delta }
