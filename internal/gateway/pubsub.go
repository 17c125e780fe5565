package gateway

import (
	"context"
	"encoding/json"

	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/model"
)

// Subscriber is the subset of a Redis client the router needs.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
}

// PubSubRouter feeds order events published on Redis into the hub, so
// clients connected to any instance see every instance's orders.
type PubSubRouter struct {
	hub     *Hub
	rdb     Subscriber
	channel string
}

// NewPubSubRouter creates a router from channel into hub.
func NewPubSubRouter(hub *Hub, rdb Subscriber, channel string) *PubSubRouter {
	return &PubSubRouter{hub: hub, rdb: rdb, channel: channel}
}

// Run subscribes and routes messages. Blocks until ctx is cancelled.
func (r *PubSubRouter) Run(ctx context.Context) {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	r.hub.log.WithField("channel", r.channel).Info("subscribed to order events")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.route(ctx, []byte(msg.Payload))
		}
	}
}

func (r *PubSubRouter) route(ctx context.Context, payload []byte) {
	var ev model.OrderEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		r.hub.log.WithError(err).WithFields(logrus.Fields{"channel": r.channel}).Warn("bad order event payload")
		return
	}
	r.hub.Publish(ctx, ev)
}
