package grpcpeer

import (
	"context"
	"sync"
)

// server implements PeerServer for one rank.
//
// Exchange answers a partner's call with this rank's own payload for
// the same round: SendRecv stashes its outgoing payload before (or
// while) calling the partner, so whichever side's RPC arrives first
// simply blocks until the other side's payload is stashed. Neither side
// needs to read the other's request payload out of the handler, since
// each SendRecv call already holds the payload it sent as a local
// variable and learns the partner's payload from the RPC response.
//
// Contribute is only ever meaningfully called against the coordinator
// rank (rank 0), which resolves each collective the same way
// transport.barrier does in-process, just driven by RPCs instead of
// goroutines touching shared memory directly.
type server struct {
	size int

	mu       sync.Mutex
	outgoing map[int]chan []int32

	collectivesMu sync.Mutex
	collectives   map[string]*collectiveRound
}

func newServer(size int) *server {
	return &server{
		size:        size,
		outgoing:    make(map[int]chan []int32),
		collectives: make(map[string]*collectiveRound),
	}
}

func (s *server) outgoingChan(round int) chan []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.outgoing[round]
	if !ok {
		ch = make(chan []int32, 1)
		s.outgoing[round] = ch
	}
	return ch
}

// stashOutgoing records payload as what this rank will hand back to
// whoever calls Exchange for round.
func (s *server) stashOutgoing(round int, payload []int32) {
	s.outgoingChan(round) <- payload
}

// Exchange implements PeerServer.
func (s *server) Exchange(ctx context.Context, req *ExchangeRequest) (*ExchangeResponse, error) {
	ch := s.outgoingChan(req.Round)
	select {
	case payload := <-ch:
		return &ExchangeResponse{Payload: payload}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Contribute implements PeerServer: it accumulates payload for kind and
// blocks until every rank has contributed, then returns the full set in
// rank order.
func (s *server) Contribute(ctx context.Context, req *ContributeRequest) (*ContributeResponse, error) {
	s.collectivesMu.Lock()
	round, ok := s.collectives[req.Kind]
	if !ok {
		round = newCollectiveRound(s.size)
		s.collectives[req.Kind] = round
	}
	s.collectivesMu.Unlock()

	result := round.rendezvous(req.Rank, req.Payload)
	return &ContributeResponse{Contributions: result}, nil
}

// collectiveRound mirrors transport.barrier's rendezvous logic for a
// single collective kind, reused across repeated runs via a generation
// counter exactly as the in-process barrier does.
type collectiveRound struct {
	mu            sync.Mutex
	cond          *sync.Cond
	size          int
	count         int
	generation    int
	contributions [][]int32
	result        [][]int32
}

func newCollectiveRound(size int) *collectiveRound {
	r := &collectiveRound{size: size}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *collectiveRound) rendezvous(rank int, payload []int32) [][]int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contributions == nil {
		r.contributions = make([][]int32, r.size)
	}
	myGeneration := r.generation
	r.contributions[rank] = payload
	r.count++

	if r.count == r.size {
		r.result = r.contributions
		r.contributions = nil
		r.count = 0
		r.generation++
		r.cond.Broadcast()
		return r.result
	}

	for r.generation == myGeneration {
		r.cond.Wait()
	}
	return r.result
}
