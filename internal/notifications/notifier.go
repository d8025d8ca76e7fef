// Package notifications fans feed events out to websocket clients, across
// instances through Redis pub/sub and to external consumers through NATS.
package notifications

import (
	"context"
	"log/slog"
	"runtime/debug"

	"factoryfeed/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// FeedChannel carries every feed event as a JSON envelope.
const FeedChannel = "feed:events"

// Notifier publishes feed events into Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier; a nil client makes every call a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether events actually leave the process.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishFeedEvent sends a serialized event to every subscribed instance.
func (n *Notifier) PublishFeedEvent(ctx context.Context, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, FeedChannel, payload).Err()
}

// StartFeedSubscriber calls onMessage for each event until ctx is done.
// The subscription is confirmed before StartFeedSubscriber returns.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in feed subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()
	return nil
}
