// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analytics builds an immutable in-memory snapshot of the concept
// graph and computes centrality, community structure, and statistics over it.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/pdiddy/noesis/internal/graphstore"
	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/pkg/types"
)

// Snapshot is a directed concept graph frozen at load time. Node IDs are the
// positions of concepts in load order, which is also the tie-break order for
// every ranking derived from the snapshot. A Snapshot is never mutated after
// construction and may be shared by reference.
type Snapshot struct {
	concepts []types.Concept
	index    map[string]int

	// relationships keeps every non-MENTIONS edge, duplicates included, for
	// the relationship-type histogram.
	relationships []types.Relationship

	// pairs holds each distinct ordered (source, target), self-loops included.
	pairs map[[2]int]struct{}

	succ, pred [][]int // directed adjacency without self-loops, sorted
	adj        [][]int // undirected projection without self-loops, sorted

	directed   *simple.DirectedGraph
	reversed   *simple.DirectedGraph
	undirected *simple.UndirectedGraph

	log *logger.Logger
}

// Load reads the whole graph from store and builds a Snapshot. Every call is
// a full reload.
func Load(ctx context.Context, store graphstore.Store, log *logger.Logger) (*Snapshot, error) {
	data, err := store.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	s := New(data, log)
	s.log.Info("graph snapshot loaded", "nodes", s.Len(), "edges", s.EdgeCount())
	return s, nil
}

// New builds a Snapshot from data. MENTIONS relationships are dropped.
// Relationship endpoints missing from data.Concepts are added as concepts of
// unknown type in order of first appearance. Duplicate concept names keep
// the first occurrence.
func New(data *types.GraphData, log *logger.Logger) *Snapshot {
	if log == nil {
		log = logger.Nop()
	}
	s := &Snapshot{
		index: make(map[string]int),
		pairs: make(map[[2]int]struct{}),
		log:   log.With("component", "analytics"),
	}

	add := func(c types.Concept) int {
		if id, ok := s.index[c.Name]; ok {
			return id
		}
		id := len(s.concepts)
		if c.Type == "" {
			c.Type = types.ConceptUnknown
		}
		s.concepts = append(s.concepts, c)
		s.index[c.Name] = id
		return id
	}

	for _, c := range data.Concepts {
		if c.Name == "" {
			continue
		}
		add(c)
	}

	type edge struct{ u, v int }
	var edges []edge
	for _, r := range data.Relationships {
		if r.Type == types.RelMentions || r.Source == "" || r.Target == "" {
			continue
		}
		u := add(types.Concept{Name: r.Source, Type: types.ConceptUnknown})
		v := add(types.Concept{Name: r.Target, Type: types.ConceptUnknown})
		s.relationships = append(s.relationships, r)
		key := [2]int{u, v}
		if _, seen := s.pairs[key]; seen {
			continue
		}
		s.pairs[key] = struct{}{}
		edges = append(edges, edge{u, v})
	}

	n := len(s.concepts)
	s.succ = make([][]int, n)
	s.pred = make([][]int, n)
	s.adj = make([][]int, n)
	s.directed = simple.NewDirectedGraph()
	s.reversed = simple.NewDirectedGraph()
	s.undirected = simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		s.directed.AddNode(simple.Node(i))
		s.reversed.AddNode(simple.Node(i))
		s.undirected.AddNode(simple.Node(i))
	}

	undirectedSeen := make(map[[2]int]bool)
	for _, e := range edges {
		// gonum's simple graphs reject self-loops.
		if e.u == e.v {
			continue
		}
		s.succ[e.u] = append(s.succ[e.u], e.v)
		s.pred[e.v] = append(s.pred[e.v], e.u)
		s.directed.SetEdge(simple.Edge{F: simple.Node(e.u), T: simple.Node(e.v)})
		s.reversed.SetEdge(simple.Edge{F: simple.Node(e.v), T: simple.Node(e.u)})

		a, b := e.u, e.v
		if a > b {
			a, b = b, a
		}
		if undirectedSeen[[2]int{a, b}] {
			continue
		}
		undirectedSeen[[2]int{a, b}] = true
		s.adj[a] = append(s.adj[a], b)
		s.adj[b] = append(s.adj[b], a)
		s.undirected.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
	}
	for i := 0; i < n; i++ {
		sort.Ints(s.succ[i])
		sort.Ints(s.pred[i])
		sort.Ints(s.adj[i])
	}
	return s
}

// Len returns the number of concepts.
func (s *Snapshot) Len() int { return len(s.concepts) }

// EdgeCount returns the number of distinct directed (source, target) pairs.
func (s *Snapshot) EdgeCount() int { return len(s.pairs) }

// Concepts returns the concepts in load order. The slice must not be modified.
func (s *Snapshot) Concepts() []types.Concept { return s.concepts }

// ConceptAt returns the concept with node ID id.
func (s *Snapshot) ConceptAt(id int) types.Concept { return s.concepts[id] }

// Lookup returns the concept named name.
func (s *Snapshot) Lookup(name string) (types.Concept, bool) {
	id, ok := s.index[name]
	if !ok {
		return types.Concept{}, false
	}
	return s.concepts[id], true
}

// ID returns the node ID of name.
func (s *Snapshot) ID(name string) (int, bool) {
	id, ok := s.index[name]
	return id, ok
}

// Adjacent returns the undirected neighbors of id in load order. The slice
// must not be modified.
func (s *Snapshot) Adjacent(id int) []int { return s.adj[id] }

// Linked reports whether u and v share an edge in either direction.
func (s *Snapshot) Linked(u, v int) bool {
	_, fwd := s.pairs[[2]int{u, v}]
	_, back := s.pairs[[2]int{v, u}]
	return fwd || back
}

// Relationships returns the non-MENTIONS relationships as loaded.
func (s *Snapshot) Relationships() []types.Relationship { return s.relationships }
