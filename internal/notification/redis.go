package notification

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"github.com/Akshit358/Finsage/internal/model"
)

// DefaultChannel carries every order event; per-user channels append
// ":<user_id>".
const DefaultChannel = "papertrader:orders"

// Publisher is the subset of a Redis client used for Pub/Sub.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// RedisNotifier publishes order events as JSON on Redis Pub/Sub, once on
// the shared channel and once on the owning user's channel.
type RedisNotifier struct {
	client  Publisher
	channel string
}

// NewRedisNotifier creates a Pub/Sub notifier. An empty channel uses
// DefaultChannel.
func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (r *RedisNotifier) Name() string { return "redis" }

// UserChannel returns the channel events for userID are published on.
func (r *RedisNotifier) UserChannel(userID string) string {
	return r.channel + ":" + userID
}

func (r *RedisNotifier) Send(ctx context.Context, ev model.OrderEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis notify: marshal: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("redis notify: publish %s: %w", r.channel, err)
	}
	if ev.Order.UserID != "" {
		ch := r.UserChannel(ev.Order.UserID)
		if err := r.client.Publish(ctx, ch, data).Err(); err != nil {
			return fmt.Errorf("redis notify: publish %s: %w", ch, err)
		}
	}
	return nil
}
