package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/graphstore"
)

func storeFromAdjacency(t *testing.T, adjacency [][]int32) graphstore.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, graphstore.WriteStore(&buf, adjacency))
	reader, err := graphstore.OpenBuffered(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	return reader
}

func TestPartitionSplitsRangeContiguously(t *testing.T) {
	var v, p int32 = 10, 4
	var lo, hi int32
	seen := make(map[int32]bool)
	for r := int32(0); r < p; r++ {
		var err error
		lo, hi, err = Partition(v, p, r)
		require.NoError(t, err)
		for i := lo; i <= hi; i++ {
			assert.False(t, seen[i], "vertex %d covered twice", i)
			seen[i] = true
		}
	}
	assert.Equal(t, int(v), len(seen))
}

func TestPartitionRejectsNonPowerOfTwoProcesses(t *testing.T) {
	_, _, err := Partition(10, 3, 0)
	require.Error(t, err)
}

func TestPartitionRejectsTooFewVertices(t *testing.T) {
	_, _, err := Partition(2, 4, 0)
	require.Error(t, err)
}

func TestRunSingleProcessCountsComponents(t *testing.T) {
	// Two disjoint triangles: {0,1,2} and {3,4,5}.
	adjacency := [][]int32{
		{1, 2}, {0, 2}, {0, 1},
		{4, 5}, {3, 5}, {3, 4},
	}
	reader := storeFromAdjacency(t, adjacency)
	defer reader.Close()

	result, err := Run(context.Background(), 1, reader, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.ComponentCount)
}

func TestRunMultiProcessMatchesSingleProcess(t *testing.T) {
	// A path 0-1-2-...-15 plus an isolated pair 16-17: two components.
	n := 18
	adjacency := make([][]int32, n)
	for i := 0; i < 16; i++ {
		if i+1 < 16 {
			adjacency[i] = append(adjacency[i], int32(i+1))
			adjacency[i+1] = append(adjacency[i+1], int32(i))
		}
	}
	adjacency[16] = append(adjacency[16], 17)
	adjacency[17] = append(adjacency[17], 16)

	for _, p := range []int{1, 2, 4} {
		reader := storeFromAdjacency(t, adjacency)
		result, err := Run(context.Background(), p, reader, nil)
		reader.Close()
		require.NoError(t, err)
		assert.EqualValuesf(t, 2, result.ComponentCount, "p=%d", p)
	}
}

func TestRunSingleComponentAcrossAllRanks(t *testing.T) {
	n := 16
	adjacency := make([][]int32, n)
	for i := 0; i < n-1; i++ {
		adjacency[i] = append(adjacency[i], int32(i+1))
		adjacency[i+1] = append(adjacency[i+1], int32(i))
	}

	for _, p := range []int{1, 2, 4, 8} {
		reader := storeFromAdjacency(t, adjacency)
		result, err := Run(context.Background(), p, reader, nil)
		reader.Close()
		require.NoError(t, err)
		assert.EqualValuesf(t, 1, result.ComponentCount, "p=%d", p)
	}
}

func TestRunEveryVertexIsolated(t *testing.T) {
	n := 8
	adjacency := make([][]int32, n)

	reader := storeFromAdjacency(t, adjacency)
	defer reader.Close()

	result, err := Run(context.Background(), 4, reader, nil)
	require.NoError(t, err)
	assert.EqualValues(t, n, result.ComponentCount)
}

func TestRunRejectsNonPowerOfTwoProcesses(t *testing.T) {
	reader := storeFromAdjacency(t, make([][]int32, 8))
	defer reader.Close()

	_, err := Run(context.Background(), 3, reader, nil)
	require.Error(t, err)
}
