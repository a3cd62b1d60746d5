package grpcpeer

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/transport"
	cclerrors "github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/errors"
)

// coordinatorRank is the fixed rank every Peer routes its collectives
// through, matching the original algorithm's rank-0 result collection.
const coordinatorRank = 0

// Peer is a cross-process transport.Peer backed by gRPC: each rank
// listens for Exchange/Contribute calls on its own address and dials
// its partners and the coordinator rank on demand.
type Peer struct {
	rank  int
	size  int
	addrs []string

	srv        *server
	grpcServer *grpc.Server
	listener   net.Listener

	mu    sync.Mutex
	conns map[int]*grpc.ClientConn

	sendRecvRound atomic.Int64
}

// Listen starts rank's gRPC server on addrs[rank] and returns a Peer
// that can reach the other ranks at the remaining addresses.
func Listen(rank int, addrs []string) (*Peer, error) {
	if rank < 0 || rank >= len(addrs) {
		return nil, cclerrors.Wrap(cclerrors.CodeConfigError, "rank out of range for peer addresses", nil)
	}
	lis, err := net.Listen("tcp", addrs[rank])
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeIOError, "listen for peer rpc", err)
	}

	srv := newServer(len(addrs))
	grpcServer := grpc.NewServer()
	RegisterPeerServer(grpcServer, srv)

	p := &Peer{
		rank:       rank,
		size:       len(addrs),
		addrs:      addrs,
		srv:        srv,
		grpcServer: grpcServer,
		listener:   lis,
		conns:      make(map[int]*grpc.ClientConn),
	}

	go grpcServer.Serve(lis)
	return p, nil
}

// Close stops the gRPC server and closes outbound connections.
func (p *Peer) Close() error {
	p.grpcServer.GracefulStop()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cc := range p.conns {
		cc.Close()
	}
	return nil
}

func (p *Peer) connTo(rank int) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cc, ok := p.conns[rank]; ok {
		return cc, nil
	}
	cc, err := grpc.NewClient(p.addrs[rank],
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "dial peer", err)
	}
	p.conns[rank] = cc
	return cc, nil
}

// Rank implements transport.Peer.
func (p *Peer) Rank() int { return p.rank }

// Size implements transport.Peer.
func (p *Peer) Size() int { return p.size }

// SendRecv implements transport.Peer. Both ends stash their outgoing
// payload for the round before dialing out, so whichever side's
// Exchange RPC lands first simply blocks on the other side's stash.
func (p *Peer) SendRecv(ctx context.Context, partner int, payload []int32) ([]int32, error) {
	round := int(p.sendRecvRound.Add(1))
	p.srv.stashOutgoing(round, payload)

	cc, err := p.connTo(partner)
	if err != nil {
		return nil, err
	}
	resp, err := newPeerClient(cc).Exchange(ctx, &ExchangeRequest{
		FromRank: p.rank,
		Round:    round,
		Payload:  payload,
	})
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "exchange rpc", err)
	}
	return resp.Payload, nil
}

func (p *Peer) contribute(ctx context.Context, kind string, payload []int32) ([][]int32, error) {
	cc, err := p.connTo(coordinatorRank)
	if err != nil {
		return nil, err
	}
	resp, err := newPeerClient(cc).Contribute(ctx, &ContributeRequest{
		Kind:    kind,
		Rank:    p.rank,
		Payload: payload,
	})
	if err != nil {
		return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "contribute rpc", err)
	}
	return resp.Contributions, nil
}

// AllGatherSizes implements transport.Peer.
func (p *Peer) AllGatherSizes(ctx context.Context, localSize int) ([]int, error) {
	contributions, err := p.contribute(ctx, "sizes", []int32{int32(localSize)})
	if err != nil {
		return nil, err
	}
	sizes := make([]int, len(contributions))
	for i, c := range contributions {
		sizes[i] = int(c[0])
	}
	return sizes, nil
}

// AllGatherV implements transport.Peer.
func (p *Peer) AllGatherV(ctx context.Context, local []int32) ([][]int32, error) {
	return p.contribute(ctx, "allgatherv", local)
}

// Gather implements transport.Peer. root must be coordinatorRank; this
// transport always collects final results at the same rank that acts
// as its collective coordinator.
func (p *Peer) Gather(ctx context.Context, root int, payload []int32) ([][]int32, error) {
	if root != coordinatorRank {
		return nil, cclerrors.Wrap(cclerrors.CodeProtocolError, "grpc transport only gathers to the coordinator rank", nil)
	}
	contributions, err := p.contribute(ctx, "gather", payload)
	if err != nil {
		return nil, err
	}
	if p.rank != root {
		return nil, nil
	}
	return contributions, nil
}

var _ transport.Peer = (*Peer)(nil)
