package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const queueChannel = "dispatch:queue:changed"

// QueueFeed publishes and subscribes to dispatch-queue change signals over
// Redis pub/sub. A signal carries no payload: subscribers re-read the full
// snapshot from the store, which keeps restartable subscriptions trivial
// (re-subscribing yields the current snapshot plus subsequent changes).
type QueueFeed struct {
	client *redis.Client
}

// NewQueueFeed creates a new QueueFeed.
func NewQueueFeed(client *redis.Client) *QueueFeed {
	return &QueueFeed{client: client}
}

// NotifyChanged signals that the dispatch queue changed.
func (f *QueueFeed) NotifyChanged(ctx context.Context) error {
	return f.client.Publish(ctx, queueChannel, "1").Err()
}

// Subscribe opens a subscription on the change feed.
func (f *QueueFeed) Subscribe(ctx context.Context) (QueueSubscription, error) {
	pubsub := f.client.Subscribe(ctx, queueChannel)

	// Force the subscription to be established before returning so a
	// change published right after Subscribe is not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &queueSubscription{
		pubsub:  pubsub,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go sub.pump()

	return sub, nil
}

type queueSubscription struct {
	pubsub  *redis.PubSub
	changes chan struct{}
	done    chan struct{}
}

// pump coalesces pub/sub messages into at-most-one pending change signal.
func (s *queueSubscription) pump() {
	defer close(s.changes)
	ch := s.pubsub.Channel()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			select {
			case s.changes <- struct{}{}:
			default:
				// A signal is already pending; snapshots are
				// authoritative so one delivery covers both.
			}
		case <-s.done:
			return
		}
	}
}

func (s *queueSubscription) Changes() <-chan struct{} {
	return s.changes
}

func (s *queueSubscription) Close() error {
	close(s.done)
	return s.pubsub.Close()
}
