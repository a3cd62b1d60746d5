package graphstore

import (
	"bytes"
	"os"
	"syscall"

	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// MmapReader reads a store by mapping the whole file into the process's
// address space, letting the OS page large stores in and out instead of
// copying them through read syscalls. Adapted from the teacher's
// MmapArray: a single syscall.Mmap over the file descriptor, with Close
// unmapping it.
type MmapReader struct {
	file        *os.File
	data        []byte
	vertexCount int64
	offsets     []int64
}

// OpenMmap memory-maps path and opens it for reads.
func OpenMmap(path string) (*MmapReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "open store file", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "stat store file", err)
	}
	size := info.Size()
	if size < headerSize {
		file.Close()
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "store file too small", nil)
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "mmap store file", err)
	}

	if !bytes.Equal(data[0:8], magic[:]) {
		syscall.Munmap(data)
		file.Close()
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "bad store magic", nil)
	}
	vertexCount := int64(byteOrder.Uint64(data[8:16]))

	tableStart := headerSize
	tableEnd := tableStart + offsetTableSize(vertexCount)
	if tableEnd > size {
		syscall.Munmap(data)
		file.Close()
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "offset table truncated", nil)
	}
	offsets := make([]int64, vertexCount+1)
	for i := range offsets {
		off := tableStart + int64(i)*8
		offsets[i] = int64(byteOrder.Uint64(data[off : off+8]))
	}

	return &MmapReader{file: file, data: data, vertexCount: vertexCount, offsets: offsets}, nil
}

// VertexCount implements Reader.
func (m *MmapReader) VertexCount() int32 {
	return int32(m.vertexCount)
}

// ReadRange implements Reader.
func (m *MmapReader) ReadRange(lo, hi int32) ([][]int32, error) {
	if lo < 0 || hi >= int32(m.vertexCount) || lo > hi {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "range out of bounds", nil)
	}
	dataStart := dataSectionStart(m.vertexCount)
	rows := make([][]int32, hi-lo+1)
	for v := lo; v <= hi; v++ {
		start := dataStart + m.offsets[v]
		end := dataStart + m.offsets[v+1]
		row, err := decodeRow(m.data[start:end], v)
		if err != nil {
			return nil, err
		}
		rows[v-lo] = row
	}
	return rows, nil
}

// Close implements Reader.
func (m *MmapReader) Close() error {
	if err := syscall.Munmap(m.data); err != nil {
		return cclerrors.Wrap(cclerrors.CodeIOError, "munmap store file", err)
	}
	return m.file.Close()
}
