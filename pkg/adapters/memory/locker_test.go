package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/crudgen/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_LockUnlock(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "record-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, locker.Len())

	require.NoError(t, unlock(ctx))
	assert.Equal(t, 0, locker.Len(), "released keys should be garbage collected")

	// Unlock is idempotent.
	require.NoError(t, unlock(ctx))
}

func TestLocker_Contention(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "shared", time.Minute)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctxTimeout, "shared", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other keys are independent.
	unlockOther, err := locker.Lock(ctxTimeout, "other", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlockOther(ctx))

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker.Lock(ctx, "shared", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
	assert.Equal(t, 0, locker.Len())
}

func TestLocker_TTLExpiry(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	_, err := locker.Lock(ctx, "leaked", 50*time.Millisecond)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	unlock, err := locker.Lock(ctxTimeout, "leaked", time.Minute)
	require.NoError(t, err, "lock should be reclaimable after its ttl")
	require.NoError(t, unlock(ctx))
}

func TestLocker_MutualExclusion(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "counter", time.Minute)
			if !assert.NoError(t, err) {
				return
			}
			counter++
			_ = unlock(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locker.Len())
}

func TestLocker_NoLeak(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		unlock, err := locker.Lock(ctx, fmt.Sprintf("record-%d", i), 0)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	}
	assert.Equal(t, 0, locker.Len())
}
