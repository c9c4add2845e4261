package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const onlineDriversKey = "drivers:online"

// PresenceStore tracks which drivers are online in Redis.
//
// Presence gates the pending list: an offline driver's list is suppressed
// without tearing down the underlying subscription.
type PresenceStore struct {
	client *redis.Client
}

// NewPresenceStore creates a new PresenceStore.
func NewPresenceStore(client *redis.Client) *PresenceStore {
	return &PresenceStore{client: client}
}

// SetOnline marks a driver online.
func (s *PresenceStore) SetOnline(ctx context.Context, driverID string) error {
	return s.client.SAdd(ctx, onlineDriversKey, driverID).Err()
}

// SetOffline marks a driver offline.
func (s *PresenceStore) SetOffline(ctx context.Context, driverID string) error {
	return s.client.SRem(ctx, onlineDriversKey, driverID).Err()
}

// IsOnline reports whether a driver is online.
func (s *PresenceStore) IsOnline(ctx context.Context, driverID string) (bool, error) {
	return s.client.SIsMember(ctx, onlineDriversKey, driverID).Result()
}

// OnlineDrivers returns all online driver IDs.
func (s *PresenceStore) OnlineDrivers(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, onlineDriversKey).Result()
}
