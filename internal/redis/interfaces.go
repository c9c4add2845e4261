package redis

import (
	"context"
	"time"
)

// PresenceStoreInterface defines the interface for driver online presence.
type PresenceStoreInterface interface {
	SetOnline(ctx context.Context, driverID string) error
	SetOffline(ctx context.Context, driverID string) error
	IsOnline(ctx context.Context, driverID string) (bool, error)
	OnlineDrivers(ctx context.Context) ([]string, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRequestLock(ctx context.Context, requestID string, ttl time.Duration) (bool, error)
	ReleaseRequestLock(ctx context.Context, requestID string) error
}

// QueueFeedInterface defines the interface for the dispatch-queue change feed.
type QueueFeedInterface interface {
	NotifyChanged(ctx context.Context) error
	Subscribe(ctx context.Context) (QueueSubscription, error)
}

// QueueSubscription is a cancellable handle on the queue change feed.
// Changes returns a channel that receives one signal per underlying change;
// consumers re-fetch the full snapshot on each signal and replace prior state
// rather than diffing. Close must be called on consumer teardown.
type QueueSubscription interface {
	Changes() <-chan struct{}
	Close() error
}

// Ensure concrete types implement interfaces.
var (
	_ PresenceStoreInterface = (*PresenceStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ QueueFeedInterface     = (*QueueFeed)(nil)
)
