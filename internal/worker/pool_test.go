package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	got, err := Map(context.Background(), items, 8, func(_ context.Context, idx int, item int) (int, error) {
		// Finish later items first.
		time.Sleep(time.Duration(len(items)-idx) * 100 * time.Microsecond)
		return item * item, nil
	})
	require.NoError(t, err)
	require.Len(t, got, len(items))
	for i, v := range got {
		assert.Equal(t, i*i, v)
	}
}

func TestMap_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]struct{}, 40)
	_, err := Map(context.Background(), items, 3, func(context.Context, int, struct{}) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestMap_ZeroLimitIsSequential(t *testing.T) {
	var inFlight, peak atomic.Int32
	_, err := Map(context.Background(), []int{1, 2, 3, 4}, 0, func(context.Context, int, int) (int, error) {
		if n := inFlight.Add(1); n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), peak.Load())
}

func TestMap_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	got, err := Map(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, _ int, item int) (int, error) {
		if item == 2 {
			return 0, boom
		}
		return item, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	got, err := Map(ctx, []int{1, 2, 3}, 2, func(context.Context, int, int) (int, error) {
		calls.Add(1)
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Zero(t, calls.Load())
}

func TestMap_Empty(t *testing.T) {
	got, err := Map(context.Background(), nil, 4, func(context.Context, int, string) (string, error) {
		t.Fatal("fn must not be called")
		return "", nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}
