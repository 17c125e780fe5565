// Package notification delivers order lifecycle events to external
// channels: logs, HTTP webhooks and Redis Pub/Sub.
package notification

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
)

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Name labels the backend in logs and metrics.
	Name() string
	// Send delivers one event. Returns error if delivery fails.
	Send(ctx context.Context, ev model.OrderEvent) error
}

// LogNotifier logs every event (useful for development).
type LogNotifier struct {
	log *logrus.Entry
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	if log == nil {
		log = logger.Discard()
	}
	return &LogNotifier{log: log.WithField("component", "notify")}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, ev model.OrderEvent) error {
	n.log.WithFields(logger.Fields(ctx)).WithFields(logrus.Fields{
		"event":    ev.Type,
		"order_id": ev.Order.OrderID,
		"user_id":  ev.Order.UserID,
		"status":   ev.Order.Status,
	}).Info("order event")
	return nil
}

// Fanout publishes each event to every publisher in order.
type Fanout []model.EventPublisher

// Publish implements model.EventPublisher.
func (f Fanout) Publish(ctx context.Context, ev model.OrderEvent) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}

// Dispatcher implements model.EventPublisher on top of Notifiers. Publish
// only enqueues; a background worker delivers to every notifier. Events
// arriving while the queue is full are dropped.
type Dispatcher struct {
	notifiers []Notifier
	queue     chan dispatchItem
	metrics   *metrics.Metrics
	log       *logrus.Entry

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

type dispatchItem struct {
	traceID string
	ev      model.OrderEvent
}

// NewDispatcher creates a dispatcher with a queue of size buffer.
func NewDispatcher(buffer int, m *metrics.Metrics, log *logrus.Entry, notifiers ...Notifier) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		notifiers: notifiers,
		queue:     make(chan dispatchItem, buffer),
		metrics:   m,
		log:       log.WithField("component", "dispatcher"),
		done:      make(chan struct{}),
	}
}

// Publish implements model.EventPublisher. It never blocks.
func (d *Dispatcher) Publish(ctx context.Context, ev model.OrderEvent) {
	select {
	case <-d.done:
		return
	default:
	}
	select {
	case d.queue <- dispatchItem{traceID: logger.TraceID(ctx), ev: ev}:
	default:
		d.metrics.ObserveEvent("dispatcher", false)
		d.log.WithField("order_id", ev.Order.OrderID).Warn("queue full, event dropped")
	}
}

// Start launches the delivery worker. It exits when ctx is done or Stop
// is called, after draining what is already queued.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case item := <-d.queue:
				d.deliver(ctx, item)
			case <-ctx.Done():
				d.drain(context.Background())
				return
			case <-d.done:
				d.drain(ctx)
				return
			}
		}
	}()
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case item := <-d.queue:
			d.deliver(ctx, item)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, item dispatchItem) {
	if item.traceID != "" {
		ctx = logger.WithTraceID(ctx, item.traceID)
	}
	for _, n := range d.notifiers {
		err := n.Send(ctx, item.ev)
		d.metrics.ObserveEvent(n.Name(), err == nil)
		if err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"notifier": n.Name(),
				"order_id": item.ev.Order.OrderID,
			}).Warn("delivery failed")
		}
	}
}

// Stop stops the worker and waits for it to drain the queue.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}
