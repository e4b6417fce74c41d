package locker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/locker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SerializesSameKey(t *testing.T) {
	t.Parallel()

	l := locker.NewMemory()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock, err := l.Lock(context.Background(), "enrollment-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}

			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestMemory_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	l := locker.NewMemory()

	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemory_ContextCanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	l := locker.NewMemory()

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}
