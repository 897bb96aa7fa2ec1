package sssp

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/ritzau/map-api/pkg/model"
)

// Infinity is the largest distance the engine reports. Sums that would
// exceed it are clamped to it. Reachability is tracked separately, so a
// node at Infinity is still reached.
const Infinity int64 = math.MaxInt64

var (
	// ErrUnknownNode is returned when the start node is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNoPath is returned when the end node cannot be reached from the start node.
	ErrNoPath = errors.New("no path between nodes")
)

// Result holds the outcome of ComputeDistances.
type Result struct {
	Start string
	// Dist maps every reached node to its shortest distance from Start.
	// Unreached nodes are absent.
	Dist map[string]int64
	// Prev maps every reached node except Start to its predecessor on one
	// shortest path. Nil unless WithPredecessors was given.
	Prev map[string]string
}

// DistanceTo returns the shortest distance to name and whether it was reached.
func (r Result) DistanceTo(name string) (int64, bool) {
	d, ok := r.Dist[name]
	if !ok {
		return Infinity, false
	}
	return d, true
}

// PathTo reconstructs the shortest path from Start to end.
func (r Result) PathTo(end string) ([]string, error) {
	if r.Prev == nil && end != r.Start {
		return nil, fmt.Errorf("sssp: predecessors were not recorded")
	}
	return ReconstructPath(r.Prev, r.Start, end)
}

// Option customizes a ComputeDistances run.
type Option func(*options)

type options struct {
	target       string
	hasTarget    bool
	predecessors bool
}

// WithTarget lets the run stop as soon as target is settled. Distances and
// paths to target are the same with or without it; other nodes may be left
// with tentative distances.
func WithTarget(target string) Option {
	return func(o *options) {
		o.target = target
		o.hasTarget = true
	}
}

// WithPredecessors records predecessor links for path reconstruction.
func WithPredecessors() Option {
	return func(o *options) {
		o.predecessors = true
	}
}

// ComputeDistances runs Dijkstra from start over g.
//
// start must be a node of g; callers are expected to check this first, the
// engine only guards against it with ErrUnknownNode.
func ComputeDistances(g *model.Graph, start string, opts ...Option) (Result, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	if !g.HasNode(start) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownNode, start)
	}

	r := &runner{
		g:    g,
		opts: cfg,
		dist: make(map[string]int64, g.NodeCount()),
		pq:   make(queue, 0, g.NodeCount()),
	}
	if cfg.predecessors {
		r.prev = make(map[string]string, g.NodeCount())
	}

	r.init(start)
	r.process()

	return Result{
		Start: start,
		Dist:  r.dist,
		Prev:  r.prev,
	}, nil
}

// runner holds the mutable state of a single run.
type runner struct {
	g    *model.Graph
	opts options
	dist map[string]int64
	prev map[string]string
	pq   queue
}

func (r *runner) init(start string) {
	r.dist[start] = 0

	heap.Init(&r.pq)
	heap.Push(&r.pq, item{name: start, dist: 0})
}

func (r *runner) process() {
	for r.pq.Len() > 0 {
		it := heap.Pop(&r.pq).(item)

		// Outdated entry left behind by a later improvement.
		if it.dist > r.dist[it.name] {
			continue
		}

		if r.opts.hasTarget && it.name == r.opts.target {
			return
		}

		r.relax(it.name)
	}
}

// relax tries to improve every neighbor of u through u.
func (r *runner) relax(u string) {
	du := r.dist[u]
	for _, edge := range r.g.Nodes[u] {
		candidate := addSaturating(du, edge.Distance)
		if current, reached := r.dist[edge.To]; reached && candidate >= current {
			continue
		}

		r.dist[edge.To] = candidate
		if r.prev != nil {
			r.prev[edge.To] = u
		}
		heap.Push(&r.pq, item{name: edge.To, dist: candidate})
	}
}

// addSaturating returns a+b, clamped to Infinity. Both are non-negative.
func addSaturating(a, b int64) int64 {
	if b < 0 {
		b = 0
	}
	if a > Infinity-b {
		return Infinity
	}
	return a + b
}

// ReconstructPath walks prev backwards from end to start and returns the
// nodes from start to end inclusive. When start == end the path is [start].
func ReconstructPath(prev map[string]string, start, end string) ([]string, error) {
	if start == end {
		return []string{start}, nil
	}

	var reversed []string
	seen := make(map[string]bool)
	for current := end; current != start; {
		if seen[current] {
			return nil, fmt.Errorf("%w: predecessor cycle at %q", ErrNoPath, current)
		}
		seen[current] = true
		reversed = append(reversed, current)

		p, ok := prev[current]
		if !ok || p == "" {
			return nil, fmt.Errorf("%w: %q to %q", ErrNoPath, start, end)
		}
		current = p
	}
	reversed = append(reversed, start)

	path := make([]string, len(reversed))
	for i, name := range reversed {
		path[len(reversed)-1-i] = name
	}
	return path, nil
}
