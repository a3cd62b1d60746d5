package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRecvExchangesPayloads(t *testing.T) {
	peers := NewLocalFabric(2)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
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

	assert.Equal(t, []int32{4, 5}, results[0])
	assert.Equal(t, []int32{1, 2, 3}, results[1])
}

func TestAllGatherSizesAndV(t *testing.T) {
	const size = 4
	peers := NewLocalFabric(size)
	ctx := context.Background()

	var wg sync.WaitGroup
	sizeResults := make([][]int, size)
	payloadResults := make([][][]int32, size)
	wg.Add(size)
	for r := 0; r < size; r++ {
		r := r
		go func() {
			defer wg.Done()
			sizes, err := peers[r].AllGatherSizes(ctx, r+1)
			require.NoError(t, err)
			sizeResults[r] = sizes

			local := make([]int32, r+1)
			for i := range local {
				local[i] = int32(r)
			}
			payloads, err := peers[r].AllGatherV(ctx, local)
			require.NoError(t, err)
			payloadResults[r] = payloads
		}()
	}
	wg.Wait()

	for r := 0; r < size; r++ {
		assert.Equal(t, []int{1, 2, 3, 4}, sizeResults[r])
		for sender := 0; sender < size; sender++ {
			assert.Len(t, payloadResults[r][sender], sender+1)
			for _, v := range payloadResults[r][sender] {
				assert.Equal(t, int32(sender), v)
			}
		}
	}
}

func TestGatherOnlyRootGetsResult(t *testing.T) {
	const size = 3
	peers := NewLocalFabric(size)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([][][]int32, size)
	wg.Add(size)
	for r := 0; r < size; r++ {
		r := r
		go func() {
			defer wg.Done()
			out, err := peers[r].Gather(ctx, 0, []int32{int32(r)})
			require.NoError(t, err)
			results[r] = out
		}()
	}
	wg.Wait()

	require.NotNil(t, results[0])
	assert.Equal(t, [][]int32{{0}, {1}, {2}}, results[0])
	assert.Nil(t, results[1])
	assert.Nil(t, results[2])
}

func TestSendRecvRejectsSelfAndOutOfRangePartner(t *testing.T) {
	peers := NewLocalFabric(2)
	ctx := context.Background()

	_, err := peers[0].SendRecv(ctx, 0, nil)
	require.Error(t, err)

	_, err = peers[0].SendRecv(ctx, 5, nil)
	require.Error(t, err)
}

func TestBarrierReusableAcrossRounds(t *testing.T) {
	b := newBarrier(2)
	var wg sync.WaitGroup
	wg.Add(2)
	var firstRound, secondRound [2][][]int32

	go func() {
		defer wg.Done()
		firstRound[0] = b.rendezvous(0, []int32{1})
		secondRound[0] = b.rendezvous(0, []int32{10})
	}()
	go func() {
		defer wg.Done()
		firstRound[1] = b.rendezvous(1, []int32{2})
		secondRound[1] = b.rendezvous(1, []int32{20})
	}()
	wg.Wait()

	assert.Equal(t, [][]int32{{1}, {2}}, firstRound[0])
	assert.Equal(t, [][]int32{{10}, {20}}, secondRound[0])
}
