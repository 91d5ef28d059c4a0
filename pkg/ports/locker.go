package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes writes to the same record across generator
// instances sharing a store.
type DistributedLocker interface {
	// Lock acquires the lock for key (a record ID), blocking until it is
	// acquired or ctx is done. The lock expires after ttl if never released.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
