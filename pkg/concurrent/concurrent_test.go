package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachVisitsAll(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	for _, workers := range []int{0, 1, 4, 200} {
		out := make([]int, len(items))
		err := ForEach(context.Background(), items, workers, func(_ context.Context, idx, v int) error {
			out[idx] = v * 2
			return nil
		})
		require.NoError(t, err)
		for i, v := range out {
			require.Equal(t, i*2, v, "workers=%d", workers)
		}
	}
}

func TestForEachLimitsWorkers(t *testing.T) {
	var running, peak atomic.Int32
	err := Range(context.Background(), 50, 3, func(context.Context, int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestForEachReturnsError(t *testing.T) {
	boom := errors.New("boom")
	for _, workers := range []int{1, 4} {
		err := Range(context.Background(), 10, workers, func(_ context.Context, idx int) error {
			if idx == 5 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom, "workers=%d", workers)
	}
}

func TestForEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := ForEach(ctx, []int{1, 2, 3}, 1, func(context.Context, int, int) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
