// Package engine drives the per-rank pipeline (labeler, CAG construction
// and merge, reduction tree) to completion and wires it to a transport.
package engine

import (
	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// Partition returns rank's inclusive vertex range under the fixed
// formula: rank r owns [r*floor(v/p), (r+1)*floor(v/p)-1] for r<p-1,
// and the remainder for the last rank. v must be at least p, and p must
// be a power of two; both are configuration errors caught here rather
// than discovered mid-run.
func Partition(v, p, rank int32) (lo, hi int32, err error) {
	if p < 1 || p&(p-1) != 0 {
		return 0, 0, cclerrors.Wrap(cclerrors.CodeConfigError, "process count must be a power of two", nil)
	}
	if v < p {
		return 0, 0, cclerrors.Wrap(cclerrors.CodeConfigError, "vertex count must be at least process count", nil)
	}
	if rank < 0 || rank >= p {
		return 0, 0, cclerrors.Wrap(cclerrors.CodeConfigError, "rank out of range", nil)
	}

	share := v / p
	lo = rank * share
	if rank == p-1 {
		hi = v - 1
	} else {
		hi = lo + share - 1
	}
	return lo, hi, nil
}

// IsPowerOfTwo reports whether p is a positive power of two.
func IsPowerOfTwo(p int) bool {
	return p > 0 && p&(p-1) == 0
}

// Log2 returns the base-2 logarithm of p, assumed to already be a power
// of two (callers validate with IsPowerOfTwo first).
func Log2(p int) int {
	n := 0
	for p > 1 {
		p >>= 1
		n++
	}
	return n
}
