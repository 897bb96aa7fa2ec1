package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ritzau/map-api/pkg/model"
	"github.com/ritzau/map-api/pkg/sssp"
)

// Source provides the graph a query runs against.
type Source interface {
	Current() *model.Graph
}

// Route is one shortest path between two nodes.
type Route struct {
	Nodes    []string
	Distance int64
}

// String renders the route as the concatenated node names, e.g. "ABC".
func (r Route) String() string {
	return strings.Join(r.Nodes, "")
}

// Service answers shortest route and distance queries.
type Service struct {
	source Source
}

// NewService creates a query service reading from source.
func NewService(source Source) *Service {
	return &Service{source: source}
}

// ShortestDistance returns the total distance of a shortest path from -> to.
func (s *Service) ShortestDistance(from, to string) (int64, error) {
	res, err := s.run(from, to, false)
	if err != nil {
		return 0, err
	}

	d, ok := res.DistanceTo(to)
	if !ok {
		return 0, &Error{Kind: KindNoPath, From: from, To: to, Err: ErrNoPath}
	}
	return d, nil
}

// ShortestRoute returns one shortest path from -> to.
func (s *Service) ShortestRoute(from, to string) (Route, error) {
	res, err := s.run(from, to, true)
	if err != nil {
		return Route{}, err
	}

	d, ok := res.DistanceTo(to)
	if !ok {
		return Route{}, &Error{Kind: KindNoPath, From: from, To: to, Err: ErrNoPath}
	}

	nodes, err := res.PathTo(to)
	if err != nil {
		if errors.Is(err, sssp.ErrNoPath) {
			return Route{}, &Error{Kind: KindNoPath, From: from, To: to, Err: err}
		}
		return Route{}, fmt.Errorf("reconstructing route %s→%s: %w", from, to, err)
	}

	return Route{Nodes: nodes, Distance: d}, nil
}

// run validates the request against one snapshot of the graph and computes
// distances from the start node.
func (s *Service) run(from, to string, withPath bool) (sssp.Result, error) {
	if from == "" || to == "" {
		return sssp.Result{}, &Error{Kind: KindMissingParameter, From: from, To: to, Err: ErrMissingParameter}
	}

	g := s.source.Current()
	if !g.HasNode(from) || !g.HasNode(to) {
		return sssp.Result{}, &Error{Kind: KindUnknownNode, From: from, To: to, Err: ErrUnknownNode}
	}
	if g.NodeCount() == 0 {
		return sssp.Result{}, &Error{Kind: KindEmptyGraph, From: from, To: to, Err: ErrEmptyGraph}
	}

	opts := []sssp.Option{sssp.WithTarget(to)}
	if withPath {
		opts = append(opts, sssp.WithPredecessors())
	}

	res, err := sssp.ComputeDistances(g, from, opts...)
	if err != nil {
		return sssp.Result{}, fmt.Errorf("computing distances from %s: %w", from, err)
	}
	return res, nil
}
