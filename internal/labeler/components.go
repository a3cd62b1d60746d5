package labeler

import (
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/collections"
)

// LabelResult is the outcome of labeling a LocalSubgraph: one label per
// local vertex, plus the border bookkeeping needed to build a CAG and
// exchange border information with peers.
type LabelResult struct {
	// Labels[i] is the component label of vertex sub.Lo+i. A label
	// equals sub.Lo plus the index of its component in discovery order.
	Labels []int32

	// LocalToForeign maps a local vertex with at least one foreign
	// neighbor to the distinct foreign vertex ids it is adjacent to.
	LocalToForeign map[int32][]int32
}

// ConnectedComponents labels every vertex in sub with an iterative DFS,
// one pass per undiscovered vertex in ascending id order. The label for
// a component is sub.Lo plus the number of components already found in
// this subgraph, so labels for a rank's components are a dense range
// starting at sub.Lo regardless of which vertex ids end up in them.
func ConnectedComponents(sub *LocalSubgraph) *LabelResult {
	n := sub.VertexCount()
	visited := collections.NewBitset(n)
	labels := make([]int32, n)
	for i := range labels {
		labels[i] = -1
	}
	localToForeign := make(map[int32][]int32)

	stack := collections.NewStack[int32](64)
	label := sub.Lo

	for v := sub.Lo; v <= sub.Hi; v++ {
		if visited.Test(int(v - sub.Lo)) {
			continue
		}
		stack.Clear()
		stack.Push(v)

		for {
			cur, ok := stack.Pop()
			if !ok {
				break
			}
			offset := int(cur - sub.Lo)
			if visited.Test(offset) {
				continue
			}
			visited.Set(offset)
			labels[offset] = label

			neighbors, _ := sub.Neighbors(cur)
			for _, w := range neighbors {
				if sub.isLocal(w) {
					if !visited.Test(int(w - sub.Lo)) {
						stack.Push(w)
					}
				} else {
					localToForeign[cur] = appendDistinct(localToForeign[cur], w)
				}
			}
		}
		label++
	}

	return &LabelResult{Labels: labels, LocalToForeign: localToForeign}
}

func appendDistinct(xs []int32, x int32) []int32 {
	for _, existing := range xs {
		if existing == x {
			return xs
		}
	}
	return append(xs, x)
}

// LabelOf returns the label assigned to local vertex v.
func (r *LabelResult) LabelOf(sub *LocalSubgraph, v int32) int32 {
	return r.Labels[v-sub.Lo]
}

// BorderList flattens LocalToForeign into the [localVertex, label,
// localVertex, label, ...] wire shape the all-gather exchange sends.
func (r *LabelResult) BorderList(sub *LocalSubgraph) []int32 {
	out := make([]int32, 0, len(r.LocalToForeign)*2)
	for v := range r.LocalToForeign {
		out = append(out, v, r.LabelOf(sub, v))
	}
	return out
}
