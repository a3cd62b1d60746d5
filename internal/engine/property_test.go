package engine

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/graphstore"
)

// TestDistributedMatchesSequentialReference runs the same random graph
// through every rank count and checks the component count against the
// P=1 reference, across the vertex-count/density matrix.
func TestDistributedMatchesSequentialReference(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property sweep in -short mode")
	}

	vertexCounts := []int{100, 1000, 10000}
	densityMultipliers := []float64{1.5, 3, 10}
	processCounts := []int{1, 2, 4, 8}

	rng := rand.New(rand.NewSource(42))

	for _, v := range vertexCounts {
		for _, mult := range densityMultipliers {
			numEdges := int(float64(v) * mult)
			adjacency := graphstore.GenerateRandomGraph(v, numEdges, rng)

			var buf bytes.Buffer
			require.NoError(t, graphstore.WriteStore(&buf, adjacency))
			raw := buf.Bytes()

			reference, err := graphstore.OpenBuffered(bytes.NewReader(raw), nil)
			require.NoError(t, err)
			refResult, err := Run(context.Background(), 1, reference, nil)
			require.NoError(t, err)
			reference.Close()

			for _, p := range processCounts {
				if v < p {
					continue
				}
				reader, err := graphstore.OpenBuffered(bytes.NewReader(raw), nil)
				require.NoError(t, err)
				result, err := Run(context.Background(), p, reader, nil)
				reader.Close()
				require.NoError(t, err)

				assert.Equalf(t, refResult.ComponentCount, result.ComponentCount,
					"v=%d density=%vV p=%d", v, mult, p)
			}
		}
	}
}
