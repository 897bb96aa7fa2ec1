// Package sssp computes single-source shortest paths on a model.Graph.
//
// The engine is Dijkstra's algorithm over non-negative integer distances.
// Vertices wait in a binary min-heap ordered by (distance, name). The name
// tie-break makes the pop order fully deterministic, so when several
// shortest paths exist the predecessor recorded for a node is always the
// same one for the same graph.
//
// There is no decrease-key: a node whose distance improves is pushed again
// and the outdated entry is discarded when it reaches the top of the heap.
// This costs at most one heap entry per successful relaxation.
//
// Distances saturate at Infinity; adding an edge to a tentative distance
// never wraps around. A node counts as reached once it has any tentative
// distance, so a path whose length saturates is still reported, clamped.
// Graphs accepted by model.Graph.Validate never get there: edge distances are
// bounded by model.MaxDistance.
package sssp
