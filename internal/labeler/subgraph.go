// Package labeler computes a rank's local connected components and the
// border structure needed to build its component-adjacency graph.
package labeler

import (
	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// LocalSubgraph is the slice of a larger graph owned by one rank: the
// inclusive vertex range [Lo, Hi] plus an adjacency list indexed by the
// offset from Lo. Neighbor ids are absolute vertex ids and may point
// outside [Lo, Hi]; those are the graph's foreign edges.
type LocalSubgraph struct {
	Lo, Hi int32
	adj    [][]int32
}

// NewLocalSubgraph allocates an empty subgraph over the inclusive range.
func NewLocalSubgraph(lo, hi int32) *LocalSubgraph {
	return &LocalSubgraph{
		Lo:  lo,
		Hi:  hi,
		adj: make([][]int32, hi-lo+1),
	}
}

func (s *LocalSubgraph) offset(v int32) (int, error) {
	if v < s.Lo || v > s.Hi {
		return 0, cclerrors.Wrap(cclerrors.CodeInvariantViolation, "vertex out of local range", nil)
	}
	return int(v - s.Lo), nil
}

// AddDirectedEdge records w as a neighbor of v. v must be local; w may
// be local or foreign. This mirrors the one-directional adjacency rows
// an indexed store yields per vertex, so both endpoints of a local-local
// edge are reconstructed only if the store records both directions.
func (s *LocalSubgraph) AddDirectedEdge(v, w int32) error {
	i, err := s.offset(v)
	if err != nil {
		return err
	}
	s.adj[i] = append(s.adj[i], w)
	return nil
}

// AddEdge records the undirected edge in both directions; w must also
// be local.
func (s *LocalSubgraph) AddEdge(v, w int32) error {
	if err := s.AddDirectedEdge(v, w); err != nil {
		return err
	}
	return s.AddDirectedEdge(w, v)
}

// Neighbors returns the raw adjacency row for vertex v.
func (s *LocalSubgraph) Neighbors(v int32) ([]int32, error) {
	i, err := s.offset(v)
	if err != nil {
		return nil, err
	}
	return s.adj[i], nil
}

// VertexCount returns the number of vertices in this subgraph.
func (s *LocalSubgraph) VertexCount() int {
	return len(s.adj)
}

func (s *LocalSubgraph) isLocal(v int32) bool {
	return v >= s.Lo && v <= s.Hi
}
