package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// MaxDistance is the largest accepted edge distance. Keeping edges within
// 32 bits keeps every simple path sum far below math.MaxInt64.
const MaxDistance int64 = math.MaxInt32

var (
	// ErrNoNodes is returned when a graph has an empty node mapping.
	ErrNoNodes = errors.New("graph has no nodes")
	// ErrEmptyNodeName is returned when a node is keyed by the empty string.
	ErrEmptyNodeName = errors.New("node name is empty")
	// ErrDanglingEdge is returned when an edge points at a node that is not a key of the graph.
	ErrDanglingEdge = errors.New("edge target is not a node of the graph")
	// ErrNegativeDistance is returned for edges with a distance below zero.
	ErrNegativeDistance = errors.New("edge distance is negative")
	// ErrDistanceTooLarge is returned for edges with a distance above MaxDistance.
	ErrDistanceTooLarge = errors.New("edge distance is too large")
)

// Graph is a weighted undirected graph stored as an adjacency mapping.
// A node exists iff it is a key of Nodes, even when its edge list is empty.
type Graph struct {
	Nodes map[string][]Edge `json:"nodes"`
}

// Edge is one adjacency entry: the neighbor and the distance to reach it.
type Edge struct {
	To       string `json:"to" validate:"required"`
	Distance int64  `json:"distance" validate:"gte=0"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string][]Edge),
	}
}

// AddNode adds a node without edges. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if _, exists := g.Nodes[name]; !exists {
		g.Nodes[name] = []Edge{}
	}
}

// AddEdge adds an undirected edge between from and to, creating both nodes
// if needed. Each side gets its own Edge value.
func (g *Graph) AddEdge(from, to string, distance int64) {
	g.AddNode(from)
	g.AddNode(to)

	g.Nodes[from] = append(g.Nodes[from], Edge{To: to, Distance: distance})
	if from == to {
		return
	}
	g.Nodes[to] = append(g.Nodes[to], Edge{To: from, Distance: distance})
}

// HasNode reports whether name is a node of the graph.
func (g *Graph) HasNode(name string) bool {
	if g == nil {
		return false
	}
	_, exists := g.Nodes[name]
	return exists
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// EdgeEntries returns the number of adjacency entries across all nodes.
// For a normalized graph every edge other than a self-loop is counted twice.
func (g *Graph) EdgeEntries() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, edges := range g.Nodes {
		n += len(edges)
	}
	return n
}

// Names returns the node names in sorted order.
func (g *Graph) Names() []string {
	if g == nil {
		return nil
	}
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that g can be stored: at least one node, no empty names,
// every edge target is itself a node and every distance is within
// 0..MaxDistance.
func (g *Graph) Validate() error {
	if g == nil || len(g.Nodes) == 0 {
		return ErrNoNodes
	}

	for _, name := range g.Names() {
		if name == "" {
			return ErrEmptyNodeName
		}
		for i, edge := range g.Nodes[name] {
			if edge.Distance < 0 {
				return fmt.Errorf("%w: %s→%s distance=%d", ErrNegativeDistance, name, edge.To, edge.Distance)
			}
			if edge.Distance > MaxDistance {
				return fmt.Errorf("%w: %s→%s distance=%d, max %d", ErrDistanceTooLarge, name, edge.To, edge.Distance, MaxDistance)
			}
			if err := validateEdge(edge); err != nil {
				return fmt.Errorf("node %q edge %d: %w", name, i, err)
			}
			if _, exists := g.Nodes[edge.To]; !exists {
				return fmt.Errorf("%w: %s→%s", ErrDanglingEdge, name, edge.To)
			}
		}
	}

	return nil
}

// Undirected returns a new graph in which every edge a→b(w) has a matching
// b→a(w) entry. Entries already present on both sides are not duplicated;
// multiplicity is preserved. The receiver is not modified and the result
// shares no slices or maps with it.
//
// The receiver must already be valid (see Validate).
func (g *Graph) Undirected() *Graph {
	type entry struct {
		from, to string
		distance int64
	}

	out := &Graph{Nodes: make(map[string][]Edge, len(g.Nodes))}
	counts := make(map[entry]int)

	names := g.Names()
	for _, name := range names {
		edges := make([]Edge, len(g.Nodes[name]))
		copy(edges, g.Nodes[name])
		out.Nodes[name] = edges

		for _, edge := range edges {
			counts[entry{name, edge.To, edge.Distance}]++
		}
	}

	for _, name := range names {
		for _, edge := range g.Nodes[name] {
			if edge.To == name {
				continue
			}
			forward := entry{name, edge.To, edge.Distance}
			reverse := entry{edge.To, name, edge.Distance}
			if counts[reverse] < counts[forward] {
				out.Nodes[edge.To] = append(out.Nodes[edge.To], Edge{To: name, Distance: edge.Distance})
				counts[reverse]++
			}
		}
	}

	return out
}
