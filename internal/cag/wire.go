package cag

import (
	"sort"

	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/collections"
)

// Serialize encodes the graph as an int32 stream:
//
//	[rangeLo, rangeHi, (id, isForeign, |neighbors|, n1, n2, ...), ..., -1]
//
// Node order is sorted by id so two serializations of an unchanged graph
// are byte-identical, which keeps the reduction tree's size-then-payload
// exchange reproducible in tests.
func (g *Graph) Serialize() []int32 {
	buf := collections.GetInt32Slice()
	defer collections.PutInt32Slice(buf)

	out := *buf
	out = append(out, g.RangeLo, g.RangeHi)

	ids := make([]int32, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		n := g.Nodes[id]
		foreign := int32(0)
		if n.IsForeign {
			foreign = 1
		}
		out = append(out, n.ID, foreign, int32(len(n.Neighbors)))

		neighbors := make([]int32, 0, len(n.Neighbors))
		for nb := range n.Neighbors {
			neighbors = append(neighbors, nb)
		}
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		out = append(out, neighbors...)
	}
	out = append(out, -1)

	result := make([]int32, len(out))
	copy(result, out)
	return result
}

// Deserialize decodes a stream produced by Serialize into a fresh Graph.
// Returned nodes carry no union-find entries; a deserialized graph is
// always a received peer graph, not a continuation of one, so it starts
// with each node as its own root.
func Deserialize(stream []int32) (*Graph, error) {
	if len(stream) < 3 {
		return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "wire stream too short", nil)
	}
	rangeLo, rangeHi := stream[0], stream[1]
	g := New(rangeLo, rangeHi)

	i := 2
	for {
		if i >= len(stream) {
			return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "wire stream missing terminator", nil)
		}
		if stream[i] == -1 {
			i++
			break
		}
		if i+2 >= len(stream) {
			return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "truncated node header", nil)
		}
		id := stream[i]
		isForeign := stream[i+1] != 0
		degree := int(stream[i+2])
		i += 3
		if degree < 0 || i+degree > len(stream) {
			return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "truncated neighbor list", nil)
		}
		if err := g.AddNode(id, isForeign); err != nil {
			return nil, err
		}
		n := g.Nodes[id]
		for k := 0; k < degree; k++ {
			n.Neighbors[stream[i+k]] = struct{}{}
		}
		i += degree
	}

	if i != len(stream) {
		return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "trailing data after terminator", nil)
	}
	return g, nil
}
