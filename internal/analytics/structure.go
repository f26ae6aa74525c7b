// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analytics

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/pdiddy/noesis/pkg/types"
)

// DetectCommunities partitions the undirected projection with Louvain
// modularity maximization. Community IDs are arbitrary and may differ
// between calls on the same snapshot.
func (s *Snapshot) DetectCommunities() map[string]int {
	out := make(map[string]int, len(s.concepts))
	if len(s.concepts) == 0 {
		return out
	}
	if s.undirected.Edges().Len() == 0 {
		for i, c := range s.concepts {
			out[c.Name] = i
		}
		return out
	}

	reduced := community.Modularize(s.undirected, 1, nil)
	for cid, members := range reduced.Communities() {
		for _, node := range members {
			out[s.concepts[node.ID()].Name] = cid
		}
	}
	return out
}

// Statistics summarizes the snapshot. The average shortest path is only
// reported when every ordered pair of nodes is connected by a directed path;
// otherwise it is nil.
func (s *Snapshot) Statistics() types.GraphStatistics {
	n := len(s.concepts)
	stats := types.GraphStatistics{
		NumNodes:                     n,
		NumEdges:                     s.EdgeCount(),
		NodeTypeDistribution:         make(map[types.ConceptType]int),
		RelationshipTypeDistribution: make(map[types.RelationshipType]int),
	}
	if n > 1 {
		stats.Density = float64(stats.NumEdges) / float64(n*(n-1))
	}

	if n > 0 {
		components := topo.ConnectedComponents(s.undirected)
		stats.NumConnectedComponents = len(components)
		stats.IsConnected = len(components) == 1
	}
	stats.AverageClustering = s.averageClustering()

	if stats.IsConnected {
		if avg, ok := s.averageShortestPath(); ok {
			stats.AverageShortestPath = &avg
		}
	}

	for _, c := range s.concepts {
		stats.NodeTypeDistribution[c.Type]++
	}
	for _, r := range s.relationships {
		stats.RelationshipTypeDistribution[r.Type]++
	}
	return stats
}

// averageClustering is the mean local clustering coefficient of the
// undirected projection. Nodes with degree below two contribute zero.
func (s *Snapshot) averageClustering() float64 {
	n := len(s.concepts)
	if n == 0 {
		return 0
	}
	total := 0.0
	for u := 0; u < n; u++ {
		nbrs := s.adj[u]
		k := len(nbrs)
		if k < 2 {
			continue
		}
		links := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if s.Linked(nbrs[i], nbrs[j]) {
					links++
				}
			}
		}
		total += 2 * float64(links) / float64(k*(k-1))
	}
	return total / float64(n)
}

// averageShortestPath returns the mean directed hop distance over all
// ordered pairs. ok is false when some pair is unreachable.
func (s *Snapshot) averageShortestPath() (float64, bool) {
	n := len(s.concepts)
	if n == 1 {
		return 0, true
	}
	if len(topo.TarjanSCC(s.directed)) != 1 {
		return 0, false
	}
	sum := 0
	for u := 0; u < n; u++ {
		reached := 0
		var bf traverse.BreadthFirst
		bf.Walk(s.directed, s.directed.Node(int64(u)), func(_ graph.Node, d int) bool {
			sum += d
			reached++
			return false
		})
		if reached != n {
			return 0, false
		}
	}
	return float64(sum) / float64(n*(n-1)), true
}

// Neighbors returns the concepts within distance hops of concept, following
// edges in either direction. Distance 1 is the union of direct predecessors
// and successors. Larger distances take, for every other node, the shorter
// of the forward and reverse directed path lengths. An unknown concept
// yields an empty result.
//
// Each call runs a forward and a reverse breadth-first search that stop at
// distance hops. On dense graphs the frontier can still cover most nodes,
// so callers iterating over many concepts should expect O(V·E) work.
func (s *Snapshot) Neighbors(concept string, distance int) []string {
	id, ok := s.index[concept]
	if !ok || distance < 1 {
		return []string{}
	}

	found := make(map[int]bool)
	if distance == 1 {
		for _, v := range s.succ[id] {
			found[v] = true
		}
		for _, v := range s.pred[id] {
			found[v] = true
		}
	} else {
		for _, g := range []*simple.DirectedGraph{s.directed, s.reversed} {
			var bf traverse.BreadthFirst
			bf.Walk(g, g.Node(int64(id)), func(node graph.Node, d int) bool {
				if d > distance {
					return true
				}
				if d > 0 {
					found[int(node.ID())] = true
				}
				return false
			})
		}
	}
	delete(found, id)

	ids := make([]int, 0, len(found))
	for v := range found {
		ids = append(ids, v)
	}
	sort.Ints(ids)
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = s.concepts[v].Name
	}
	return out
}
