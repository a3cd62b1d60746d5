package graphstore

import (
	"bytes"
	"io"

	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// Reader provides random-access reads of adjacency rows from a store.
type Reader interface {
	// VertexCount returns the number of vertices in the store.
	VertexCount() int32

	// ReadRange returns the adjacency rows for vertices [lo, hi]
	// inclusive, row i holding vertex lo+i's neighbors.
	ReadRange(lo, hi int32) ([][]int32, error)

	// Close releases resources held by the reader.
	Close() error
}

// BufferedReader reads a store through an io.ReaderAt, without mapping
// the file into memory. It is the fallback backend for small stores or
// sources that cannot be mmapped (e.g. a store opened from gzip).
type BufferedReader struct {
	r           io.ReaderAt
	vertexCount int64
	offsets     []int64
	closer      io.Closer
}

// OpenBuffered opens a store for buffered reads.
func OpenBuffered(r io.ReaderAt, closer io.Closer) (*BufferedReader, error) {
	hdr := make([]byte, headerSize)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "read header", err)
	}
	if !bytes.Equal(hdr[0:8], magic[:]) {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "bad store magic", nil)
	}
	vertexCount := int64(byteOrder.Uint64(hdr[8:16]))

	offsetBytes := make([]byte, offsetTableSize(vertexCount))
	if _, err := r.ReadAt(offsetBytes, headerSize); err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "read offset table", err)
	}
	offsets := make([]int64, vertexCount+1)
	for i := range offsets {
		offsets[i] = int64(byteOrder.Uint64(offsetBytes[i*8 : i*8+8]))
	}

	return &BufferedReader{r: r, vertexCount: vertexCount, offsets: offsets, closer: closer}, nil
}

// VertexCount implements Reader.
func (b *BufferedReader) VertexCount() int32 {
	return int32(b.vertexCount)
}

// ReadRange implements Reader.
func (b *BufferedReader) ReadRange(lo, hi int32) ([][]int32, error) {
	if lo < 0 || hi >= int32(b.vertexCount) || lo > hi {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "range out of bounds", nil)
	}
	rows := make([][]int32, hi-lo+1)
	dataStart := dataSectionStart(b.vertexCount)
	for v := lo; v <= hi; v++ {
		start := b.offsets[v]
		end := b.offsets[v+1]
		raw := make([]byte, end-start)
		if _, err := b.r.ReadAt(raw, dataStart+start); err != nil {
			return nil, cclerrors.Wrap(cclerrors.CodeIOError, "read adjacency row", err)
		}
		row, err := decodeRow(raw, v)
		if err != nil {
			return nil, err
		}
		rows[v-lo] = row
	}
	return rows, nil
}

// Close implements Reader.
func (b *BufferedReader) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// decodeRow parses a raw `[id, neighbors..., -1]` row and self-checks
// that the leading id matches the expected vertex.
func decodeRow(raw []byte, expectedID int32) ([]int32, error) {
	count := len(raw) / 4
	if count < 2 {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "truncated adjacency row", nil)
	}
	values := make([]int32, count)
	for i := 0; i < count; i++ {
		values[i] = int32(byteOrder.Uint32(raw[i*4 : i*4+4]))
	}
	if values[0] != expectedID {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "adjacency row self-check failed", nil)
	}
	if values[count-1] != rowTerminator {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "adjacency row missing terminator", nil)
	}
	return values[1 : count-1], nil
}
