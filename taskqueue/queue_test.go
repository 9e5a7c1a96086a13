package taskqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func TestEnqueueRunsJob(t *testing.T) {
	pool := newTestPool(t)

	var ran atomic.Int32
	var gotArg atomic.Value
	pool.Register("greet", Job{
		Run: func(ctx context.Context, args Args) error {
			ran.Add(1)
			gotArg.Store(args["name"])
			return nil
		},
	})

	handle, err := pool.Enqueue(context.Background(), "greet", Args{"name": "world"})
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	pool.Drain()
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, "world", gotArg.Load())
}

func TestEnqueueAsUsesCallerHandle(t *testing.T) {
	pool := newTestPool(t)

	var ran atomic.Int32
	pool.Register("greet", Job{
		Run: func(ctx context.Context, args Args) error {
			ran.Add(1)
			return nil
		},
	})

	handle := NewHandle()
	require.NotEmpty(t, handle)
	assert.NotEqual(t, handle, NewHandle())

	require.NoError(t, pool.EnqueueAs(context.Background(), handle, "greet", nil))
	pool.Drain()
	assert.Equal(t, int32(1), ran.Load())

	err := pool.EnqueueAs(context.Background(), NewHandle(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestEnqueueUnknownJob(t *testing.T) {
	pool := newTestPool(t)

	_, err := pool.Enqueue(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestJobRetriesUntilSuccess(t *testing.T) {
	pool := newTestPool(t)

	var attempts atomic.Int32
	pool.Register("flaky", Job{
		Run: func(ctx context.Context, args Args) error {
			if attempts.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		},
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
	})

	_, err := pool.Enqueue(context.Background(), "flaky", nil)
	require.NoError(t, err)

	pool.Drain()
	assert.Equal(t, int32(3), attempts.Load())
}

func TestJobFailureIsAbsorbed(t *testing.T) {
	pool := newTestPool(t)

	var attempts atomic.Int32
	pool.Register("doomed", Job{
		Run: func(ctx context.Context, args Args) error {
			attempts.Add(1)
			return errors.New("permanent")
		},
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	})

	// Enqueue must not surface the job's failure.
	_, err := pool.Enqueue(context.Background(), "doomed", nil)
	require.NoError(t, err)

	pool.Drain()
	assert.Equal(t, int32(2), attempts.Load())
}

func TestJobOutlivesCallerContext(t *testing.T) {
	pool := newTestPool(t)

	done := make(chan struct{})
	pool.Register("slowish", Job{
		Run: func(ctx context.Context, args Args) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(20 * time.Millisecond):
				close(done)
				return nil
			}
		},
		MaxAttempts: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := pool.Enqueue(ctx, "slowish", nil)
	require.NoError(t, err)
	cancel()

	pool.Drain()
	select {
	case <-done:
	default:
		t.Fatal("job was cancelled along with the caller's context")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	calls := 0
	err = RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("always")
	}, 3, time.Millisecond)
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = RetryWithBackoff(ctx, func() error { return nil }, 1, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}
