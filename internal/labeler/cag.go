package labeler

import (
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/cag"
	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// BuildCAG constructs the component-adjacency graph for one rank: for
// every local vertex with a foreign neighbor, it adds an edge from the
// vertex's own label to the label the foreign vertex's owning rank
// reported for it. A component with no foreign edges never gets a CAG
// node; it is already fully resolved and needs no merging.
func BuildCAG(sub *LocalSubgraph, result *LabelResult, foreignIDToLabel map[int32]int32) (*cag.Graph, error) {
	g := cag.New(sub.Lo, sub.Hi)

	for v, foreignNeighbors := range result.LocalToForeign {
		label := result.LabelOf(sub, v)
		for _, foreignID := range foreignNeighbors {
			foreignLabel, ok := foreignIDToLabel[foreignID]
			if !ok {
				return nil, cclerrors.Wrap(cclerrors.CodeProtocolError,
					"foreign vertex missing from border exchange", nil)
			}
			if err := g.AddEdgeLocalToForeign(label, foreignLabel); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
