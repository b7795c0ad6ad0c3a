// Package topology models a multi-layer CDN routing scenario — the
// super-source, origin, cache, and edge-server layers plus the arcs
// connecting them — and converts it into an internal/flow.Graph ready
// to solve.
package topology

import (
	"fmt"

	"github.com/google/uuid"

	"cdnflow/internal/flow"
	"cdnflow/pkg/apperror"
)

// NodeKind classifies a node's position in the CDN layering. It is
// informational only — the solver and Validate are layer-agnostic — but
// it is part of the canonical form and appears in report labelling.
type NodeKind string

const (
	KindSource     NodeKind = "source"
	KindOrigin     NodeKind = "origin"
	KindCache      NodeKind = "cache"
	KindEdgeServer NodeKind = "edge_server"
	KindSink       NodeKind = "sink"
)

// Node is one point in the scenario's dense [0,N) ID space.
type Node struct {
	ID   int
	Name string
	Kind NodeKind
}

// Arc is one directed, capacitated, cost-weighted connection between
// two scenario nodes, expressed against the scenario's node IDs rather
// than an arc index — the scenario is a builder, not the residual graph.
type Arc struct {
	Tail     int
	Head     int
	Capacity int64
	UnitCost int64
}

// Scenario is a complete CDN routing problem instance: a topology plus
// a single (source, sink, demand) request to solve against it.
type Scenario struct {
	ID     uuid.UUID
	Name   string
	Nodes  []Node
	Arcs   []Arc
	Source int
	Sink   int
	Demand int64
}

// Bounds mirror the defensive caps a solving service applies before
// handing a scenario to the core: generous enough for any real CDN
// topology, tight enough to reject pathological input early.
const (
	MaxNodes = 1_000_000
	MaxArcs  = 10_000_000
)

// New constructs an empty named scenario awaiting nodes and arcs.
func New(name string) *Scenario {
	return &Scenario{ID: uuid.New(), Name: name}
}

// AddNode appends a node and returns its dense ID.
func (s *Scenario) AddNode(name string, kind NodeKind) int {
	id := len(s.Nodes)
	s.Nodes = append(s.Nodes, Node{ID: id, Name: name, Kind: kind})
	return id
}

// AddArc appends an arc between two already-added node IDs.
func (s *Scenario) AddArc(tail, head int, capacity, unitCost int64) {
	s.Arcs = append(s.Arcs, Arc{Tail: tail, Head: head, Capacity: capacity, UnitCost: unitCost})
}

// Validate checks the scenario against the solver's input contract
// before any arc is built into a flow.Graph, so that rejection never
// requires tearing down partial state.
func (s *Scenario) Validate() error {
	if len(s.Nodes) == 0 {
		return apperror.ErrEmptyGraph
	}
	if len(s.Nodes) > MaxNodes {
		return apperror.New(apperror.CodeGraphTooLarge, fmt.Sprintf("scenario has %d nodes, exceeds the %d limit", len(s.Nodes), MaxNodes))
	}
	if len(s.Arcs) > MaxArcs {
		return apperror.New(apperror.CodeGraphTooLarge, fmt.Sprintf("scenario has %d arcs, exceeds the %d limit", len(s.Arcs), MaxArcs))
	}
	n := len(s.Nodes)
	if s.Source < 0 || s.Source >= n {
		return apperror.ErrInvalidSource.WithDetails("source", s.Source)
	}
	if s.Sink < 0 || s.Sink >= n {
		return apperror.ErrInvalidSink.WithDetails("sink", s.Sink)
	}
	if s.Source == s.Sink {
		return apperror.ErrSameEndpoints
	}
	if s.Demand < 0 {
		return apperror.ErrNegativeDemand
	}
	for i, a := range s.Arcs {
		if a.Tail < 0 || a.Tail >= n || a.Head < 0 || a.Head >= n {
			return apperror.New(apperror.CodeInvalidNode, "arc endpoint out of range").
				WithDetails("arc_index", i).WithDetails("tail", a.Tail).WithDetails("head", a.Head)
		}
		if a.Tail == a.Head {
			return apperror.New(apperror.CodeSelfLoop, "arcs must connect distinct nodes").
				WithDetails("arc_index", i).WithDetails("node", a.Tail)
		}
		if a.Capacity < 0 {
			return apperror.New(apperror.CodeInvalidCapacity, "arc capacity must be non-negative").
				WithDetails("arc_index", i).WithDetails("capacity", a.Capacity)
		}
		if a.UnitCost < 0 {
			return apperror.New(apperror.CodeNegativeCost, "original arc unit cost must be non-negative").
				WithDetails("arc_index", i).WithDetails("unit_cost", a.UnitCost)
		}
	}
	return nil
}

// BuildGraph converts the scenario into a flow.Graph, in arc-insertion
// order, ready to pass to flow.NewSolver.
func (s *Scenario) BuildGraph() (*flow.Graph, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g := flow.New(len(s.Nodes))
	for _, a := range s.Arcs {
		if _, err := g.AddArc(a.Tail, a.Head, a.Capacity, a.UnitCost); err != nil {
			return nil, err
		}
	}
	return g, nil
}
