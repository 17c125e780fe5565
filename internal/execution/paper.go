// Package execution is the paper order engine.
//
// Orders are resolved once, at submission, against the price feed's
// current quote: market orders fill immediately, limit/stop/stop-limit
// orders fill if their trigger is met and otherwise stay PENDING until
// cancelled. Pending orders are never re-evaluated.
package execution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/ledger"
	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
	"github.com/Akshit358/Finsage/internal/portfolio"
)

// Options wires the engine's optional collaborators. Every field may be nil.
type Options struct {
	Risk    *portfolio.RiskManager
	Journal model.FillRecorder
	Events  model.EventPublisher
	Metrics *metrics.Metrics
	Log     *logrus.Entry
}

type entry struct {
	mu    sync.Mutex
	order model.Order
}

func (en *entry) snapshot() model.Order {
	en.mu.Lock()
	defer en.mu.Unlock()
	return en.order.Clone()
}

// Engine accepts, resolves and cancels orders. Safe for concurrent use;
// account updates are serialized per user by the ledger and status
// changes per order by the order's own lock.
type Engine struct {
	feed    model.PriceFeed
	ledger  *ledger.Ledger
	risk    *portfolio.RiskManager
	journal model.FillRecorder
	events  model.EventPublisher
	metrics *metrics.Metrics
	log     *logrus.Entry
	now     func() time.Time

	mu     sync.RWMutex
	orders map[string]*entry
	byUser map[string][]*entry // creation order
}

// NewEngine creates an order engine over feed and l.
func NewEngine(feed model.PriceFeed, l *ledger.Ledger, opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		feed:    feed,
		ledger:  l,
		risk:    opts.Risk,
		journal: opts.Journal,
		events:  opts.Events,
		metrics: opts.Metrics,
		log:     log.WithField("component", "orders"),
		now:     time.Now,
		orders:  make(map[string]*entry),
		byUser:  make(map[string][]*entry),
	}
}

// NewOrderID returns "ord_<yyyymmddHHMMSS>_<SYMBOL>_<8 hex>".
func NewOrderID(symbol string, at time.Time) string {
	return fmt.Sprintf("ord_%s_%s_%s", at.Format("20060102150405"), symbol, uuid.NewString()[:8])
}

func normalize(req model.OrderRequest) model.OrderRequest {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Side = model.Side(strings.ToLower(string(req.Side)))
	req.Kind = model.OrderKind(strings.ToLower(string(req.Kind)))
	return req
}

// newOrder copies the request's optional prices, so later writes by the
// caller cannot reach the stored order.
func newOrder(req model.OrderRequest, at time.Time) model.Order {
	order := model.Order{
		OrderID:    NewOrderID(req.Symbol, at),
		UserID:     req.UserID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Kind:       req.Kind,
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
		Status:     model.StatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	return order.Clone()
}

// Submit validates, prices and resolves one order.
//
// Bad parameters and risk-limit breaches are not errors: the order is
// stored REJECTED with a reason and returned. A price feed failure
// returns ErrPriceFeedUnavailable and creates no order.
func (e *Engine) Submit(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	req = normalize(req)
	now := e.now()
	order := newOrder(req, now)
	log := logger.From(ctx, e.log).WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"user_id":  req.UserID,
		"symbol":   req.Symbol,
		"side":     req.Side,
		"kind":     req.Kind,
		"qty":      req.Quantity,
	})

	if verr := Validate(req); verr != nil {
		return e.reject(ctx, log, order, verr), nil
	}

	price, err := e.feed.CurrentPrice(ctx, req.Symbol)
	if err != nil {
		log.WithError(err).Warn("price feed unavailable")
		return model.Order{}, fmt.Errorf("%w: %s: %w", ErrPriceFeedUnavailable, req.Symbol, err)
	}
	if price <= 0 {
		log.WithField("price", price).Warn("price feed returned non-positive quote")
		return model.Order{}, fmt.Errorf("%w: %s: non-positive quote %v", ErrPriceFeedUnavailable, req.Symbol, price)
	}
	order.CurrentPrice = price

	if err := e.risk.CanTrade(req, price); err != nil {
		return e.reject(ctx, log, order, err), nil
	}

	if !shouldFill(req, price) {
		e.store(order)
		e.metrics.ObserveOrder(string(order.Kind), string(order.Status))
		e.publish(ctx, model.EventOrderCreated, order)
		log.WithField("price", price).Info("order pending")
		return order, nil
	}

	fill, err := e.ledger.ApplyFill(req.UserID, req.Symbol, req.Side, req.Quantity, price)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) ||
			errors.Is(err, ledger.ErrInsufficientPosition) ||
			errors.Is(err, ledger.ErrPositionLimit) {
			return e.reject(ctx, log, order, err), nil
		}
		return model.Order{}, fmt.Errorf("apply fill: %w", err)
	}

	filledAt := e.now()
	order.Status = model.StatusFilled
	order.FillPrice = model.Price(price)
	order.FilledAt = &filledAt
	order.UpdatedAt = filledAt
	fill.OrderID = order.OrderID
	fill.FilledAt = filledAt

	e.store(order)
	e.metrics.ObserveOrder(string(order.Kind), string(order.Status))
	e.metrics.ObserveFill(string(order.Side), order.Notional())

	if e.journal != nil {
		if err := e.journal.RecordFill(ctx, order, fill); err != nil {
			log.WithError(err).Error("journal fill failed")
		}
	}
	e.publish(ctx, model.EventOrderFilled, order)

	log.WithFields(logrus.Fields{"price": price, "cash": fill.CashAfter}).Info("order filled")
	return order, nil
}

func (e *Engine) reject(ctx context.Context, log *logrus.Entry, order model.Order, reason error) model.Order {
	order.Status = model.StatusRejected
	order.Reason = reason.Error()
	e.store(order)
	e.metrics.ObserveOrder(string(order.Kind), string(order.Status))
	e.publish(ctx, model.EventOrderRejected, order)
	log.WithField("reason", order.Reason).Info("order rejected")
	return order
}

func (e *Engine) store(order model.Order) {
	en := &entry{order: order.Clone()}
	e.mu.Lock()
	e.orders[order.OrderID] = en
	e.byUser[order.UserID] = append(e.byUser[order.UserID], en)
	e.mu.Unlock()
}

func (e *Engine) publish(ctx context.Context, typ string, order model.Order) {
	if e.events == nil {
		return
	}
	e.events.Publish(ctx, model.OrderEvent{Type: typ, Order: order.Clone()})
}

func (e *Engine) lookup(orderID string) (*entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	en, ok := e.orders[orderID]
	return en, ok
}

// Cancel moves a PENDING order to CANCELLED. Any other status fails with
// ErrOrderNotCancellable and leaves the order untouched; the current
// order is returned alongside the error.
func (e *Engine) Cancel(ctx context.Context, orderID string) (model.Order, error) {
	en, ok := e.lookup(orderID)
	if !ok {
		e.metrics.ObserveCancel("not_found")
		return model.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	en.mu.Lock()
	if en.order.Status != model.StatusPending {
		order := en.order.Clone()
		en.mu.Unlock()
		e.metrics.ObserveCancel("not_cancellable")
		return order, fmt.Errorf("%w: %s is %s", ErrOrderNotCancellable, orderID, order.Status)
	}
	en.order.Status = model.StatusCancelled
	en.order.UpdatedAt = e.now()
	order := en.order.Clone()
	en.mu.Unlock()

	e.metrics.ObserveCancel("cancelled")
	e.publish(ctx, model.EventOrderCancelled, order)
	logger.From(ctx, e.log).WithFields(logrus.Fields{
		"order_id": orderID,
		"user_id":  order.UserID,
	}).Info("order cancelled")
	return order, nil
}

// Get returns one order by id.
func (e *Engine) Get(orderID string) (model.Order, error) {
	en, ok := e.lookup(orderID)
	if !ok {
		return model.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return en.snapshot(), nil
}

// List returns the user's orders oldest first, optionally filtered by status.
func (e *Engine) List(userID string, status *model.Status) []model.Order {
	e.mu.RLock()
	entries := make([]*entry, len(e.byUser[userID]))
	copy(entries, e.byUser[userID])
	e.mu.RUnlock()

	out := make([]model.Order, 0, len(entries))
	for _, en := range entries {
		o := en.snapshot()
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
