// Package graphstore implements the on-disk indexed adjacency-list
// format the engine reads a graph from: a fixed header plus an offset
// table, followed by `-1`-terminated int32 adjacency rows.
package graphstore

import (
	"encoding/binary"
)

// magic identifies a store file and its byte order.
var magic = [8]byte{'C', 'C', 'L', 'S', 'T', 'O', 'R', 'E'}

// rowTerminator ends every adjacency row in the data section.
const rowTerminator = int32(-1)

// headerSize is the fixed-size portion of the file: magic + vertex count.
const headerSize = 8 + 8

var byteOrder = binary.LittleEndian

// offsetTableSize returns the byte size of the offset table for a store
// with the given vertex count: vertexCount+1 int64 byte offsets into the
// data section, one boundary per vertex plus a final end boundary.
func offsetTableSize(vertexCount int64) int64 {
	return (vertexCount + 1) * 8
}

// dataSectionStart returns the absolute byte offset where row data begins.
func dataSectionStart(vertexCount int64) int64 {
	return headerSize + offsetTableSize(vertexCount)
}
