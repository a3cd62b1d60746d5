package graphstore

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// WriteStore serializes an adjacency list (indexed by vertex id, entries
// are absolute neighbor ids) to w in the indexed store format.
func WriteStore(w io.Writer, adjacency [][]int32) error {
	vertexCount := int64(len(adjacency))

	buf := make([]byte, headerSize)
	copy(buf[0:8], magic[:])
	byteOrder.PutUint64(buf[8:16], uint64(vertexCount))
	if _, err := w.Write(buf); err != nil {
		return cclerrors.Wrap(cclerrors.CodeIOError, "write header", err)
	}

	offsets := make([]int64, vertexCount+1)
	var cursor int64
	for i, neighbors := range adjacency {
		offsets[i] = cursor
		cursor += int64(1+len(neighbors)+1) * 4 // id + neighbors + terminator
	}
	offsets[vertexCount] = cursor

	offBuf := make([]byte, 8)
	for _, off := range offsets {
		byteOrder.PutUint64(offBuf, uint64(off))
		if _, err := w.Write(offBuf); err != nil {
			return cclerrors.Wrap(cclerrors.CodeIOError, "write offset table", err)
		}
	}

	rowBuf := make([]byte, 4)
	writeInt32 := func(v int32) error {
		byteOrder.PutUint32(rowBuf, uint32(v))
		_, err := w.Write(rowBuf)
		return err
	}
	for i, neighbors := range adjacency {
		if err := writeInt32(int32(i)); err != nil {
			return cclerrors.Wrap(cclerrors.CodeIOError, "write row id", err)
		}
		for _, n := range neighbors {
			if err := writeInt32(n); err != nil {
				return cclerrors.Wrap(cclerrors.CodeIOError, "write row neighbor", err)
			}
		}
		if err := writeInt32(rowTerminator); err != nil {
			return cclerrors.Wrap(cclerrors.CodeIOError, "write row terminator", err)
		}
	}
	return nil
}

// BuildFromEdgeListFile reads plain-text `u v` edge pairs (one per
// line, whitespace separated) and writes an indexed store to storePath.
// Vertex ids must be dense in [0, vertexCount).
func BuildFromEdgeListFile(edgeListPath, storePath string, vertexCount int) error {
	in, err := os.Open(edgeListPath)
	if err != nil {
		return cclerrors.Wrap(cclerrors.CodeIOError, "open edge list", err)
	}
	defer in.Close()

	adjacency := make([][]int32, vertexCount)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return cclerrors.Wrap(cclerrors.CodeIOError,
				fmt.Sprintf("edge list line %d: expected two fields", lineNo), nil)
		}
		u, err := strconv.Atoi(fields[0])
		if err != nil {
			return cclerrors.Wrap(cclerrors.CodeIOError, fmt.Sprintf("edge list line %d: bad vertex id", lineNo), err)
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return cclerrors.Wrap(cclerrors.CodeIOError, fmt.Sprintf("edge list line %d: bad vertex id", lineNo), err)
		}
		if u < 0 || u >= vertexCount || v < 0 || v >= vertexCount {
			return cclerrors.Wrap(cclerrors.CodeIOError,
				fmt.Sprintf("edge list line %d: vertex id out of range", lineNo), nil)
		}
		adjacency[u] = append(adjacency[u], int32(v))
		adjacency[v] = append(adjacency[v], int32(u))
	}
	if err := scanner.Err(); err != nil {
		return cclerrors.Wrap(cclerrors.CodeIOError, "scan edge list", err)
	}

	out, err := os.Create(storePath)
	if err != nil {
		return cclerrors.Wrap(cclerrors.CodeIOError, "create store file", err)
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	if err := WriteStore(bw, adjacency); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return cclerrors.Wrap(cclerrors.CodeIOError, "flush store file", err)
	}
	return nil
}

// GenerateRandomGraph builds an adjacency list with numVertices vertices
// and (approximately) numEdges undirected edges placed uniformly at
// random, skipping self-loops. It is used to synthesize property-test
// fixtures at a chosen density rather than depend on real data files.
func GenerateRandomGraph(numVertices, numEdges int, rng *rand.Rand) [][]int32 {
	adjacency := make([][]int32, numVertices)
	for placed := 0; placed < numEdges; {
		u := rng.Intn(numVertices)
		v := rng.Intn(numVertices)
		if u == v {
			continue
		}
		adjacency[u] = append(adjacency[u], int32(v))
		adjacency[v] = append(adjacency[v], int32(u))
		placed++
	}
	return adjacency
}
