package graphstore

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAdjacency() [][]int32 {
	return [][]int32{
		{1, 2},
		{0, 2},
		{0, 1},
		{4},
		{3},
	}
}

func TestWriteStoreAndBufferedRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStore(&buf, sampleAdjacency()))

	reader, err := OpenBuffered(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, int32(5), reader.VertexCount())

	rows, err := reader.ReadRange(0, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int32{1, 2}, rows[0])
	assert.ElementsMatch(t, []int32{3}, rows[4])

	partial, err := reader.ReadRange(3, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int32{4}, partial[0])
	assert.ElementsMatch(t, []int32{3}, partial[1])
}

func TestReadRangeRejectsOutOfBounds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStore(&buf, sampleAdjacency()))
	reader, err := OpenBuffered(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.ReadRange(0, 5)
	require.Error(t, err)
}

func TestOpenBufferedRejectsBadMagic(t *testing.T) {
	_, err := OpenBuffered(bytes.NewReader(make([]byte, 32)), nil)
	require.Error(t, err)
}

func TestOpenMmapRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.store")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteStore(f, sampleAdjacency()))
	require.NoError(t, f.Close())

	reader, err := OpenMmap(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, int32(5), reader.VertexCount())
	rows, err := reader.ReadRange(0, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int32{1, 2}, rows[0])
}

func TestBuildFromEdgeListFile(t *testing.T) {
	dir := t.TempDir()
	edgeListPath := filepath.Join(dir, "edges.txt")
	storePath := filepath.Join(dir, "graph.store")

	require.NoError(t, os.WriteFile(edgeListPath, []byte("0 1\n1 2\n"), 0o644))
	require.NoError(t, BuildFromEdgeListFile(edgeListPath, storePath, 3))

	reader, err := Open(storePath)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, int32(3), reader.VertexCount())
	rows, err := reader.ReadRange(0, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int32{1}, rows[0])
	assert.ElementsMatch(t, []int32{0, 2}, rows[1])
	assert.ElementsMatch(t, []int32{1}, rows[2])
}

func TestGenerateRandomGraphProducesRequestedEdgeCount(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	adjacency := GenerateRandomGraph(20, 30, rng)

	total := 0
	for _, neighbors := range adjacency {
		total += len(neighbors)
	}
	assert.Equal(t, 60, total) // each of the 30 undirected edges recorded twice
}
