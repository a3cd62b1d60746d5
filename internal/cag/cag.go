// Package cag implements the per-rank component-adjacency graph: the
// structure a rank merges with its peers over the reduction tree until a
// single consistent component labeling survives.
package cag

import (
	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// Node is one vertex of the component-adjacency graph. Its id is a
// component label, not a graph vertex id: local nodes are components
// discovered by this rank's DFS, foreign nodes stand in for a label
// reported by another rank's border exchange.
type Node struct {
	ID            int32
	IsForeign     bool
	Neighbors     map[int32]struct{}
	NextToForeign bool
}

func newNode(id int32, isForeign bool) *Node {
	return &Node{ID: id, IsForeign: isForeign, Neighbors: make(map[int32]struct{})}
}

// Graph is one rank's component-adjacency graph plus the union-find that
// accumulates as edges are contracted across reduction rounds.
type Graph struct {
	Nodes map[int32]*Node
	uf    map[int32]int32

	// RangeLo and RangeHi bound the original vertex range (inclusive)
	// whose components this graph's local nodes were built from.
	RangeLo int32
	RangeHi int32
}

// New creates an empty CAG covering the given inclusive vertex range.
func New(rangeLo, rangeHi int32) *Graph {
	return &Graph{
		Nodes:   make(map[int32]*Node),
		uf:      make(map[int32]int32),
		RangeLo: rangeLo,
		RangeHi: rangeHi,
	}
}

// AddNode inserts a node with the given foreign flag, or verifies an
// existing node's flag matches.
func (g *Graph) AddNode(id int32, isForeign bool) error {
	if n, ok := g.Nodes[id]; ok {
		if n.IsForeign != isForeign {
			return cclerrors.Wrap(cclerrors.CodeInvariantViolation,
				"node reclassification conflict", nil)
		}
		return nil
	}
	g.Nodes[id] = newNode(id, isForeign)
	return nil
}

// AddEdge adds an undirected edge between two local nodes, creating
// either endpoint if it does not already exist.
func (g *Graph) AddEdge(from, to int32) error {
	if err := g.AddNode(from, false); err != nil {
		return err
	}
	if err := g.AddNode(to, false); err != nil {
		return err
	}
	g.Nodes[from].Neighbors[to] = struct{}{}
	g.Nodes[to].Neighbors[from] = struct{}{}
	return nil
}

// AddEdgeLocalToForeign adds an edge from a local node to a foreign one,
// creating the foreign node if this is the first edge touching it.
func (g *Graph) AddEdgeLocalToForeign(from, to int32) error {
	if err := g.AddNode(from, false); err != nil {
		return err
	}
	if err := g.AddNode(to, true); err != nil {
		return err
	}
	g.Nodes[from].Neighbors[to] = struct{}{}
	g.Nodes[to].Neighbors[from] = struct{}{}
	return nil
}

// DoesNodeExist reports whether a node with the given id is present.
func (g *Graph) DoesNodeExist(id int32) bool {
	_, ok := g.Nodes[id]
	return ok
}

// IsNodeForeign reports whether the node is marked foreign.
func (g *Graph) IsNodeForeign(id int32) (bool, error) {
	n, ok := g.Nodes[id]
	if !ok {
		return false, cclerrors.Wrap(cclerrors.CodeInvariantViolation, "node does not exist", nil)
	}
	return n.IsForeign, nil
}

// MakeNodeLocal reclassifies a foreign node as local, used when a merge
// round discovers the node's owning rank has since joined this CAG.
func (g *Graph) MakeNodeLocal(id int32) error {
	n, ok := g.Nodes[id]
	if !ok {
		return cclerrors.Wrap(cclerrors.CodeInvariantViolation, "node does not exist", nil)
	}
	n.IsForeign = false
	return nil
}

// Find resolves x to its union-find root, compressing the path it
// walked. A node with no union-find entry is its own root; this is the
// resolve-before-contract policy: every find call fully compresses
// before the caller acts on the result, so contractEdge never sees a
// stale intermediate root.
func (g *Graph) Find(x int32) int32 {
	if _, ok := g.uf[x]; !ok {
		return x
	}
	root := x
	for {
		parent, ok := g.uf[root]
		if !ok || parent == root {
			break
		}
		root = parent
	}
	for x != root {
		next := g.uf[x]
		g.uf[x] = root
		x = next
	}
	return root
}

// ContractEdge merges v into u. Both u and v must already be
// union-find roots and u must be the smaller id; callers resolve
// through Find immediately before calling this, never after.
func (g *Graph) ContractEdge(u, v int32) error {
	if u == v {
		return cclerrors.Wrap(cclerrors.CodeInvariantViolation, "self-edge contraction", nil)
	}
	if u > v {
		return cclerrors.Wrap(cclerrors.CodeInvariantViolation, "contractEdge requires the smaller id as root", nil)
	}
	if g.Find(u) != u || g.Find(v) != v {
		return cclerrors.Wrap(cclerrors.CodeInvariantViolation, "contractEdge requires resolved roots", nil)
	}
	nu, okU := g.Nodes[u]
	nv, okV := g.Nodes[v]
	if !okU || !okV {
		return cclerrors.Wrap(cclerrors.CodeInvariantViolation, "contractEdge on missing node", nil)
	}

	for neighbor := range nv.Neighbors {
		if neighbor == u {
			continue
		}
		nu.Neighbors[neighbor] = struct{}{}
		if nn, ok := g.Nodes[neighbor]; ok {
			delete(nn.Neighbors, v)
			nn.Neighbors[u] = struct{}{}
		}
	}
	delete(nu.Neighbors, v)

	g.uf[v] = u
	g.uf[u] = u
	delete(g.Nodes, v)
	return nil
}

// ContractLocalToLocalEdges contracts every local-local edge whose
// endpoints resolve to different roots, deferring an edge whenever its
// larger root is adjacent to a foreign node this round (nextToForeign):
// that root may still absorb more structure from the partner's CAG, and
// contracting early would merge it in before the merge finishes.
func (g *Graph) ContractLocalToLocalEdges() error {
	for _, n := range g.Nodes {
		n.NextToForeign = false
	}

	type edge struct{ u, v int32 }
	var candidates []edge

	for id, n := range g.Nodes {
		if n.IsForeign {
			for neighbor := range n.Neighbors {
				if nn, ok := g.Nodes[neighbor]; ok {
					nn.NextToForeign = true
				}
			}
			continue
		}
		for v := range n.Neighbors {
			if id < v {
				if nv, ok := g.Nodes[v]; ok && !nv.IsForeign {
					candidates = append(candidates, edge{id, v})
				}
			}
		}
	}

	for _, e := range candidates {
		u := g.Find(e.u)
		v := g.Find(e.v)
		if u == v {
			continue
		}
		lo, hi := u, v
		if lo > hi {
			lo, hi = hi, lo
		}
		if hiNode, ok := g.Nodes[hi]; ok && hiNode.NextToForeign {
			continue
		}
		if err := g.ContractEdge(lo, hi); err != nil {
			return err
		}
	}
	return nil
}

// Merge absorbs a partner's CAG (received over the reduction tree) into
// this one: foreign nodes the partner reports as local get reclassified,
// nodes now fully owned by the merged range are dropped, and local-local
// edges contract. RangeLo/RangeHi must end up adjacent; a gap or overlap
// is a protocol error, since the butterfly schedule only ever merges
// neighboring ranges.
func (g *Graph) Merge(received *Graph) error {
	for id, rn := range received.Nodes {
		root := g.Find(id)
		if local, exists := g.Nodes[root]; !exists {
			if root != id {
				return cclerrors.Wrap(cclerrors.CodeInvariantViolation,
					"union-find root for unseen node must be itself", nil)
			}
			if err := g.AddNode(id, rn.IsForeign); err != nil {
				return err
			}
		} else {
			if local.IsForeign {
				if !rn.IsForeign {
					if root != id {
						return cclerrors.Wrap(cclerrors.CodeInvariantViolation,
							"node becoming local must equal its own root", nil)
					}
					if err := g.MakeNodeLocal(id); err != nil {
						return err
					}
				}
			} else if !rn.IsForeign {
				return cclerrors.Wrap(cclerrors.CodeInvariantViolation,
					"duplicate label ownership between ranks", nil)
			}
		}

		for neighbor := range rn.Neighbors {
			g.Nodes[root].Neighbors[g.Find(neighbor)] = struct{}{}
		}
	}

	var toRemove []int32
	for id, n := range g.Nodes {
		if n.IsForeign && id >= received.RangeLo && id <= received.RangeHi {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		n := g.Nodes[id]
		for neighbor := range n.Neighbors {
			if nn, ok := g.Nodes[neighbor]; ok {
				delete(nn.Neighbors, id)
			}
		}
		delete(g.Nodes, id)
	}

	if err := g.ContractLocalToLocalEdges(); err != nil {
		return err
	}

	if g.RangeHi+1 != received.RangeLo && received.RangeHi+1 != g.RangeLo {
		return cclerrors.Wrap(cclerrors.CodeProtocolError,
			"merged ranges are not adjacent", nil)
	}
	if received.RangeLo < g.RangeLo {
		g.RangeLo = received.RangeLo
	}
	if received.RangeHi > g.RangeHi {
		g.RangeHi = received.RangeHi
	}
	return nil
}
