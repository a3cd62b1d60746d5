package transport

import (
	"context"

	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// Local is an in-process Peer backed by goroutines and channels: one
// link per ordered rank pair for SendRecv, plus three shared barriers
// for the collectives every rank calls in lockstep.
type Local struct {
	rank  int
	size  int
	links [][]chan []int32

	sizesBarrier   *barrier
	gatherVBarrier *barrier
	gatherBarrier  *barrier
}

// NewLocalFabric builds size Peers that can reach each other in-process.
// The returned slice is indexed by rank; pass peers[r] to rank r's
// goroutine.
func NewLocalFabric(size int) []*Local {
	links := make([][]chan []int32, size)
	for i := range links {
		links[i] = make([]chan []int32, size)
		for j := range links[i] {
			links[i][j] = make(chan []int32)
		}
	}

	sizesBarrier := newBarrier(size)
	gatherVBarrier := newBarrier(size)
	gatherBarrier := newBarrier(size)

	peers := make([]*Local, size)
	for r := 0; r < size; r++ {
		peers[r] = &Local{
			rank:           r,
			size:           size,
			links:          links,
			sizesBarrier:   sizesBarrier,
			gatherVBarrier: gatherVBarrier,
			gatherBarrier:  gatherBarrier,
		}
	}
	return peers
}

// Rank implements Peer.
func (l *Local) Rank() int { return l.rank }

// Size implements Peer.
func (l *Local) Size() int { return l.size }

// SendRecv implements Peer. It sends on the rank->partner link and
// receives on the partner->rank link concurrently, since both ends of
// an in-process channel pair block until the other side is ready.
func (l *Local) SendRecv(ctx context.Context, partner int, payload []int32) ([]int32, error) {
	if partner < 0 || partner >= l.size || partner == l.rank {
		return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "invalid SendRecv partner", nil)
	}

	sendErr := make(chan error, 1)
	go func() {
		select {
		case l.links[l.rank][partner] <- payload:
			sendErr <- nil
		case <-ctx.Done():
			sendErr <- ctx.Err()
		}
	}()

	var received []int32
	select {
	case received = <-l.links[partner][l.rank]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := <-sendErr; err != nil {
		return nil, err
	}
	return received, nil
}

// AllGatherSizes implements Peer.
func (l *Local) AllGatherSizes(ctx context.Context, localSize int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := l.sizesBarrier.rendezvous(l.rank, []int32{int32(localSize)})
	sizes := make([]int, l.size)
	for i, contribution := range all {
		sizes[i] = int(contribution[0])
	}
	return sizes, nil
}

// AllGatherV implements Peer.
func (l *Local) AllGatherV(ctx context.Context, local []int32) ([][]int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := l.gatherVBarrier.rendezvous(l.rank, local)
	result := make([][]int32, l.size)
	copy(result, all)
	return result, nil
}

// Gather implements Peer.
func (l *Local) Gather(ctx context.Context, root int, payload []int32) ([][]int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := l.gatherBarrier.rendezvous(l.rank, payload)
	if l.rank != root {
		return nil, nil
	}
	result := make([][]int32, l.size)
	copy(result, all)
	return result, nil
}
