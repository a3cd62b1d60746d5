package labeler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCAGAddsForeignEdgesOnly(t *testing.T) {
	sub := NewLocalSubgraph(0, 2)
	require.NoError(t, sub.AddEdge(0, 1))
	require.NoError(t, sub.AddDirectedEdge(1, 100))

	result := ConnectedComponents(sub)
	label1 := result.LabelOf(sub, 1)

	g, err := BuildCAG(sub, result, map[int32]int32{100: 7})
	require.NoError(t, err)

	assert.True(t, g.DoesNodeExist(label1))
	foreign, err := g.IsNodeForeign(7)
	require.NoError(t, err)
	assert.True(t, foreign)
	assert.Contains(t, g.Nodes[label1].Neighbors, int32(7))

	// vertex 2 has no foreign edges, so its label never enters the CAG
	label2 := result.LabelOf(sub, 2)
	if label2 != label1 {
		assert.False(t, g.DoesNodeExist(label2))
	}
}

func TestBuildCAGRejectsUnresolvedForeignID(t *testing.T) {
	sub := NewLocalSubgraph(0, 1)
	require.NoError(t, sub.AddDirectedEdge(0, 50))

	result := ConnectedComponents(sub)
	_, err := BuildCAG(sub, result, map[int32]int32{})
	require.Error(t, err)
}
