package asl

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysTolerate(total, failed int) bool { return true }
func neverTolerate(total, failed int) bool  { return failed == 0 }

func TestRunConcurrent_EmptyInputReturnsEmptySlice(t *testing.T) {
	out, stateErr := runConcurrent(context.Background(), 0, 4, neverTolerate, func(ctx context.Context, i int) (interface{}, *StateError) {
		t.Fatal("work should not be called for n=0")
		return nil, nil
	})
	require.Nil(t, stateErr)
	assert.Empty(t, out)
}

func TestRunConcurrent_PreservesDeclarationOrderRegardlessOfCompletionOrder(t *testing.T) {
	out, stateErr := runConcurrent(context.Background(), 5, 5, neverTolerate, func(ctx context.Context, i int) (interface{}, *StateError) {
		// Reverse-index sleeps would invert completion order; index alone
		// proves placement is by index, not completion order.
		return i * 10, nil
	})
	require.Nil(t, stateErr)
	require.Len(t, out, 5)
	for i, v := range out {
		assert.Equal(t, i*10, v)
	}
}

func TestRunConcurrent_RespectsMaxConcurrencyBound(t *testing.T) {
	var current, maxSeen int32
	_, stateErr := runConcurrent(context.Background(), 10, 2, neverTolerate, func(ctx context.Context, i int) (interface{}, *StateError) {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
				break
			}
		}
		atomic.AddInt32(&current, -1)
		return nil, nil
	})
	require.Nil(t, stateErr)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxSeen)), 2)
}

func TestRunConcurrent_UntoleratedFailureReturnsFirstErrorByIndex(t *testing.T) {
	_, stateErr := runConcurrent(context.Background(), 3, 3, neverTolerate, func(ctx context.Context, i int) (interface{}, *StateError) {
		if i == 1 {
			return nil, &StateError{Name: ErrNameTaskFailed, Cause: "boom"}
		}
		return i, nil
	})
	require.NotNil(t, stateErr)
	assert.Equal(t, "boom", stateErr.Cause)
}

func TestRunConcurrent_ToleratedFailuresStillReturnResults(t *testing.T) {
	out, stateErr := runConcurrent(context.Background(), 3, 3, alwaysTolerate, func(ctx context.Context, i int) (interface{}, *StateError) {
		if i == 1 {
			return nil, &StateError{Name: ErrNameTaskFailed, Cause: "boom"}
		}
		return i, nil
	})
	require.Nil(t, stateErr)
	require.Len(t, out, 3)
	assert.Nil(t, out[1])
}

func TestRunConcurrent_CancelsRemainingWorkOnceUntolerated(t *testing.T) {
	var started int32
	_, stateErr := runConcurrent(context.Background(), 20, 1, neverTolerate, func(ctx context.Context, i int) (interface{}, *StateError) {
		atomic.AddInt32(&started, 1)
		if i == 0 {
			return nil, &StateError{Name: ErrNameTaskFailed, Cause: "boom"}
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		return i, nil
	})
	require.NotNil(t, stateErr)
	assert.Less(t, int(atomic.LoadInt32(&started)), 20)
}
