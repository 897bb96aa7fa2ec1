package graph

import (
	"math"
	"sort"

	"github.com/ritzau/map-api/pkg/model"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// WeightedGraph is a gonum view of a model.Graph.
// Parallel edges are folded to the lightest one and self-loops are dropped,
// neither changes shortest distances or connectivity.
type WeightedGraph struct {
	graph *simple.WeightedUndirectedGraph
	ids   map[string]int64 // Map from node name to graph ID
	names map[int64]string // Map from graph ID to node name
}

// Build creates a gonum view of g.
func Build(g *model.Graph) *WeightedGraph {
	wg := &WeightedGraph{
		graph: simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		ids:   make(map[string]int64, g.NodeCount()),
		names: make(map[int64]string, g.NodeCount()),
	}

	// Sorted so IDs are stable for the same graph
	for _, name := range g.Names() {
		id := int64(len(wg.ids))
		wg.ids[name] = id
		wg.names[id] = name
		wg.graph.AddNode(simple.Node(id))
	}

	for _, name := range g.Names() {
		for _, edge := range g.Nodes[name] {
			wg.addEdge(name, edge.To, float64(edge.Distance))
		}
	}

	return wg
}

func (wg *WeightedGraph) addEdge(from, to string, weight float64) {
	fromID, ok := wg.ids[from]
	if !ok {
		return
	}
	toID, ok := wg.ids[to]
	if !ok || fromID == toID {
		return
	}

	if existing, ok := wg.graph.Weight(fromID, toID); ok && existing <= weight {
		return
	}
	wg.graph.SetWeightedEdge(wg.graph.NewWeightedEdge(simple.Node(fromID), simple.Node(toID), weight))
}

// Graph returns the underlying gonum graph
func (wg *WeightedGraph) Graph() *simple.WeightedUndirectedGraph {
	return wg.graph
}

// EdgeCount returns the number of distinct undirected connections.
func (wg *WeightedGraph) EdgeCount() int {
	return wg.graph.Edges().Len()
}

// Components returns the connected components, each sorted by name, ordered
// by their first name.
func (wg *WeightedGraph) Components() [][]string {
	var components [][]string
	for _, cc := range topo.ConnectedComponents(wg.graph) {
		names := make([]string, 0, len(cc))
		for _, n := range cc {
			names = append(names, wg.names[n.ID()])
		}
		sort.Strings(names)
		components = append(components, names)
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}

// Distances returns shortest distances from start to every reachable node,
// computed by gonum's Dijkstra implementation.
func (wg *WeightedGraph) Distances(start string) map[string]int64 {
	id, ok := wg.ids[start]
	if !ok {
		return nil
	}

	shortest := path.DijkstraFrom(simple.Node(id), wg.graph)
	out := make(map[string]int64)
	for name, nid := range wg.ids {
		w := shortest.WeightTo(nid)
		if math.IsInf(w, 1) {
			continue
		}
		out[name] = int64(w)
	}
	return out
}

// Summary describes the shape of a stored graph.
type Summary struct {
	Nodes      int `json:"nodes"`
	Edges      int `json:"edges"`
	Components int `json:"components"`
}

// Summarize returns node, edge and connected component counts for g.
func Summarize(g *model.Graph) Summary {
	if g == nil {
		return Summary{}
	}
	wg := Build(g)
	return Summary{
		Nodes:      g.NodeCount(),
		Edges:      wg.EdgeCount(),
		Components: len(topo.ConnectedComponents(wg.graph)),
	}
}
