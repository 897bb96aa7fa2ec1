package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ritzau/map-api/pkg/model"
)

var (
	// ErrInvalidGraph is returned by Replace when the new graph is empty or malformed.
	ErrInvalidGraph = errors.New("invalid graph")
	// ErrNotFound is returned when no graph has been stored yet.
	ErrNotFound = errors.New("graph not found")
)

// Listener is called after every successful Replace with the stored graph.
type Listener func(g *model.Graph, version uint64)

// Store holds the current graph of the process.
//
// Replace swaps the whole graph under the write lock. Readers hold the read
// lock only long enough to copy the pointer; the graph behind it is never
// modified after it has been stored, so a query that started on an older
// graph finishes on that graph.
type Store struct {
	mu        sync.RWMutex
	graph     *model.Graph
	version   uint64
	listeners []Listener
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Replace validates g and makes an undirected copy of it the current graph.
// On failure the current graph is left untouched.
func (s *Store) Replace(g *model.Graph) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}
	stored := g.Undirected()

	s.mu.Lock()
	s.graph = stored
	s.version++
	version := s.version
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(stored, version)
	}
	return nil
}

// Current returns the stored graph, or nil if none has been set.
// The returned graph is shared and must not be modified.
func (s *Store) Current() *model.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Get returns the stored graph or ErrNotFound.
func (s *Store) Get() (*model.Graph, error) {
	g := s.Current()
	if g.NodeCount() == 0 {
		return nil, ErrNotFound
	}
	return g, nil
}

// Contains reports whether name is a node of the current graph.
func (s *Store) Contains(name string) bool {
	return s.Current().HasNode(name)
}

// IsEmpty reports whether no graph is set or the current graph has no nodes.
func (s *Store) IsEmpty() bool {
	return s.Current().NodeCount() == 0
}

// Version returns the number of successful replaces so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// OnReplace registers l to be called after each successful Replace.
// Listeners run synchronously on the replacing goroutine, outside the lock.
func (s *Store) OnReplace(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
