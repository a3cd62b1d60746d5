package grpcpeer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startPeers(t *testing.T, size int) []*Peer {
	t.Helper()
	addrs := make([]string, size)
	for i := range addrs {
		addrs[i] = "127.0.0.1:0"
	}

	// Listen picks an ephemeral port per rank; rewrite addrs with the
	// actual ports once every rank is listening.
	peers := make([]*Peer, size)
	for rank := 0; rank < size; rank++ {
		p, err := Listen(rank, addrs)
		require.NoError(t, err)
		addrs[rank] = p.listener.Addr().String()
		peers[rank] = p
	}
	for _, p := range peers {
		p.addrs = addrs
	}

	t.Cleanup(func() {
		for _, p := range peers {
			p.Close()
		}
	})
	return peers
}

func TestPeerSendRecvExchangesPayloads(t *testing.T) {
	peers := startPeers(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	results := make([][]int32, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		got, err := peers[0].SendRecv(ctx, 1, []int32{1, 2, 3})
		require.NoError(t, err)
		results[0] = got
	}()
	go func() {
		defer wg.Done()
		got, err := peers[1].SendRecv(ctx, 0, []int32{4, 5})
		require.NoError(t, err)
		results[1] = got
	}()
	wg.Wait()

	require.Equal(t, []int32{4, 5}, results[0])
	require.Equal(t, []int32{1, 2, 3}, results[1])
}

func TestPeerAllGatherSizesAndV(t *testing.T) {
	peers := startPeers(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	local := [][]int32{{10}, {20, 21}, {30, 31, 32}}
	var wg sync.WaitGroup
	sizeResults := make([][]int, 3)
	vResults := make([][][]int32, 3)
	wg.Add(3)
	for rank := 0; rank < 3; rank++ {
		rank := rank
		go func() {
			defer wg.Done()
			sizes, err := peers[rank].AllGatherSizes(ctx, len(local[rank]))
			require.NoError(t, err)
			sizeResults[rank] = sizes

			v, err := peers[rank].AllGatherV(ctx, local[rank])
			require.NoError(t, err)
			vResults[rank] = v
		}()
	}
	wg.Wait()

	for rank := 0; rank < 3; rank++ {
		require.Equal(t, []int{1, 2, 3}, sizeResults[rank])
		require.Equal(t, local, vResults[rank])
	}
}

func TestPeerGatherOnlyCoordinatorGetsResult(t *testing.T) {
	peers := startPeers(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payloads := [][]int32{{1}, {2}, {3}}
	var wg sync.WaitGroup
	results := make([][][]int32, 3)
	wg.Add(3)
	for rank := 0; rank < 3; rank++ {
		rank := rank
		go func() {
			defer wg.Done()
			got, err := peers[rank].Gather(ctx, coordinatorRank, payloads[rank])
			require.NoError(t, err)
			results[rank] = got
		}()
	}
	wg.Wait()

	require.Equal(t, payloads, results[0])
	require.Nil(t, results[1])
	require.Nil(t, results[2])
}

func TestPeerGatherRejectsNonCoordinatorRoot(t *testing.T) {
	peers := startPeers(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := peers[0].Gather(ctx, 1, []int32{1})
	require.Error(t, err)
}
