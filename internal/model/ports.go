package model

import "context"

// ── External collaborator ports ──
// The order engine, ledger and indicator callers depend only on these
// interfaces; concrete feeds live in internal/pricefeed.

// PriceFeed returns the current price for a symbol.
type PriceFeed interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// PriceFeedFunc adapts a function to PriceFeed.
type PriceFeedFunc func(ctx context.Context, symbol string) (float64, error)

func (f PriceFeedFunc) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return f(ctx, symbol)
}

// PriceHistory returns an ordered price history, oldest first.
type PriceHistory interface {
	Series(ctx context.Context, symbol, timeframe string) ([]float64, error)
}

// FillRecorder persists executed fills for audit.
type FillRecorder interface {
	RecordFill(ctx context.Context, order Order, fill Fill) error
}

// Order event types.
const (
	EventOrderCreated   = "order.created"
	EventOrderFilled    = "order.filled"
	EventOrderCancelled = "order.cancelled"
	EventOrderRejected  = "order.rejected"
)

// OrderEvent is published whenever an order is created or changes state.
type OrderEvent struct {
	Type  string `json:"type"`
	Order Order  `json:"order"`
}

// EventPublisher receives order lifecycle events. Implementations must not block.
type EventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent)
}
