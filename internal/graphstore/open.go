package graphstore

import (
	"bytes"
	"io"
	"os"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/compression"
	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// mmapThreshold is the file size above which Open prefers mapping the
// store into memory over a plain buffered reader.
const mmapThreshold = 64 * 1024 * 1024

// Open opens a store at path, transparently decompressing it first if
// its leading bytes carry a gzip or zstd magic, and otherwise choosing
// between a memory-mapped reader and a buffered one based on file size.
func Open(path string) (Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "open store file", err)
	}

	sniff := make([]byte, 4)
	n, _ := file.Read(sniff)
	sniff = sniff[:n]

	if isCompressed(sniff) {
		defer file.Close()
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, cclerrors.Wrap(cclerrors.CodeIOError, "seek store file", err)
		}
		return openCompressed(file, sniff)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "stat store file", err)
	}

	if info.Size() >= mmapThreshold {
		file.Close()
		return OpenMmap(path)
	}

	return OpenBuffered(file, file)
}

func isCompressed(sniff []byte) bool {
	if len(sniff) < 2 {
		return false
	}
	if sniff[0] == 0x1f && sniff[1] == 0x8b {
		return true
	}
	if len(sniff) >= 4 && sniff[0] == 0x28 && sniff[1] == 0xb5 && sniff[2] == 0x2f && sniff[3] == 0xfd {
		return true
	}
	return false
}

func openCompressed(file *os.File, sniff []byte) (Reader, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "read compressed store", err)
	}
	compType := compression.DetectType(sniff)
	comp, err := compression.New(compType, compression.LevelDefault)
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "init decompressor", err)
	}
	decoded, err := comp.Decompress(raw)
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "decompress store", err)
	}
	return OpenBuffered(bytes.NewReader(decoded), nil)
}
