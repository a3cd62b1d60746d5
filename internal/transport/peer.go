// Package transport abstracts the message-passing substrate a rank uses
// to exchange component-adjacency graphs and border information with
// its peers, so the engine can run over in-process channels or gRPC
// without changing its algorithm.
package transport

import "context"

// Peer is one rank's view of the collective. All operations are
// blocking and must be called in the same order by every rank; the
// engine never calls a collective from more than one goroutine per
// rank at a time.
type Peer interface {
	// Rank returns this peer's position in [0, Size()).
	Rank() int

	// Size returns the number of ranks in the run.
	Size() int

	// SendRecv exchanges a payload with partner: it sends payload to
	// partner and returns whatever partner sent back, matching the
	// two-phase send-then-receive each butterfly reduction round needs.
	SendRecv(ctx context.Context, partner int, payload []int32) ([]int32, error)

	// AllGatherSizes exchanges one int per rank, returning every rank's
	// localSize in rank order. Used to size the border-list Allgatherv.
	AllGatherSizes(ctx context.Context, localSize int) ([]int, error)

	// AllGatherV exchanges a variable-length payload, returning every
	// rank's contribution in rank order.
	AllGatherV(ctx context.Context, local []int32) ([][]int32, error)

	// Gather sends payload to root and returns every rank's
	// contribution in rank order at root; non-root callers get nil.
	Gather(ctx context.Context, root int, payload []int32) ([][]int32, error)
}
