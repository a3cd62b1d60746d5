package labeler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectedComponentsSingleComponent(t *testing.T) {
	sub := NewLocalSubgraph(0, 4)
	require.NoError(t, sub.AddEdge(0, 1))
	require.NoError(t, sub.AddEdge(1, 2))
	require.NoError(t, sub.AddEdge(2, 3))
	require.NoError(t, sub.AddEdge(3, 4))

	result := ConnectedComponents(sub)
	first := result.Labels[0]
	for _, l := range result.Labels {
		assert.Equal(t, first, l)
	}
	assert.Equal(t, int32(0), first)
}

func TestConnectedComponentsMultipleComponents(t *testing.T) {
	sub := NewLocalSubgraph(0, 5)
	require.NoError(t, sub.AddEdge(0, 1))
	require.NoError(t, sub.AddEdge(2, 3))
	// vertices 4 and 5 are isolated singletons

	result := ConnectedComponents(sub)
	assert.Equal(t, result.Labels[0], result.Labels[1])
	assert.Equal(t, result.Labels[2], result.Labels[3])
	assert.NotEqual(t, result.Labels[0], result.Labels[2])
	assert.NotEqual(t, result.Labels[4], result.Labels[5])
	assert.NotEqual(t, result.Labels[2], result.Labels[4])

	// labels form a dense range starting at Lo
	seen := make(map[int32]bool)
	for _, l := range result.Labels {
		seen[l] = true
	}
	assert.Len(t, seen, 4)
	for l := int32(0); l < 4; l++ {
		assert.Contains(t, seen, l)
	}
}

func TestConnectedComponentsRecordsForeignEdges(t *testing.T) {
	sub := NewLocalSubgraph(10, 14)
	require.NoError(t, sub.AddDirectedEdge(10, 11))
	require.NoError(t, sub.AddDirectedEdge(11, 10))
	require.NoError(t, sub.AddDirectedEdge(11, 20))
	require.NoError(t, sub.AddDirectedEdge(11, 21))
	require.NoError(t, sub.AddDirectedEdge(11, 20)) // duplicate foreign edge

	result := ConnectedComponents(sub)
	assert.ElementsMatch(t, []int32{20, 21}, result.LocalToForeign[11])
	assert.NotContains(t, result.LocalToForeign, int32(10))
}

func TestBorderListShape(t *testing.T) {
	sub := NewLocalSubgraph(0, 2)
	require.NoError(t, sub.AddDirectedEdge(1, 100))

	result := ConnectedComponents(sub)
	border := result.BorderList(sub)
	require.Len(t, border, 2)
	assert.Equal(t, int32(1), border[0])
	assert.Equal(t, result.LabelOf(sub, 1), border[1])
}

func TestAddDirectedEdgeRejectsOutOfRange(t *testing.T) {
	sub := NewLocalSubgraph(0, 2)
	err := sub.AddDirectedEdge(5, 1)
	require.Error(t, err)
}
