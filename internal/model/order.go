package model

import "time"

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// OrderKind selects how an order is resolved against the current price.
type OrderKind string

const (
	KindMarket    OrderKind = "market"
	KindLimit     OrderKind = "limit"
	KindStop      OrderKind = "stop"
	KindStopLimit OrderKind = "stop_limit"
)

// Valid reports whether k is a known order kind.
func (k OrderKind) Valid() bool {
	switch k {
	case KindMarket, KindLimit, KindStop, KindStopLimit:
		return true
	}
	return false
}

// NeedsLimit reports whether orders of this kind carry a limit price.
func (k OrderKind) NeedsLimit() bool { return k == KindLimit || k == KindStopLimit }

// NeedsStop reports whether orders of this kind carry a stop price.
func (k OrderKind) NeedsStop() bool { return k == KindStop || k == KindStopLimit }

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFilled    Status = "filled"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool { return s != StatusPending }

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusFilled, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// OrderRequest is what a caller submits to the order engine.
type OrderRequest struct {
	UserID     string    `json:"user_id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Quantity   int64     `json:"quantity"`
	Kind       OrderKind `json:"order_type"`
	LimitPrice *float64  `json:"limit_price,omitempty"`
	StopPrice  *float64  `json:"stop_price,omitempty"`
}

// Order is a paper order and its current lifecycle state.
// Once Status is terminal the order is never modified again.
type Order struct {
	OrderID      string     `json:"order_id"`
	UserID       string     `json:"user_id"`
	Symbol       string     `json:"symbol"`
	Side         Side       `json:"side"`
	Quantity     int64      `json:"quantity"`
	Kind         OrderKind  `json:"order_type"`
	LimitPrice   *float64   `json:"limit_price,omitempty"`
	StopPrice    *float64   `json:"stop_price,omitempty"`
	Status       Status     `json:"status"`
	CurrentPrice float64    `json:"current_price,omitempty"` // price observed at submission
	FillPrice    *float64   `json:"fill_price,omitempty"`
	FilledAt     *time.Time `json:"filled_at,omitempty"`
	Reason       string     `json:"reason,omitempty"` // rejection reason
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Clone returns a copy of o that shares no pointers with it.
func (o Order) Clone() Order {
	o.LimitPrice = clonePrice(o.LimitPrice)
	o.StopPrice = clonePrice(o.StopPrice)
	o.FillPrice = clonePrice(o.FillPrice)
	if o.FilledAt != nil {
		at := *o.FilledAt
		o.FilledAt = &at
	}
	return o
}

func clonePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return Price(*p)
}

// Notional returns quantity × fill price, or 0 for unfilled orders.
func (o *Order) Notional() float64 {
	if o.FillPrice == nil {
		return 0
	}
	return float64(o.Quantity) * *o.FillPrice
}

// Price returns a pointer to v, for building optional order prices.
func Price(v float64) *float64 { return &v }
