package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises access to one form session across processes.
// The session manager takes it inside WithLock, so two replicas never apply
// events to the same session at once.
type DistributedLocker interface {
	// Lock blocks until the session key is held or ctx is done. The ttl
	// bounds how long a crashed holder keeps the key. The returned
	// UnlockFunc must be called once the snapshot is saved.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
