package model

import "time"

// Position is a user's net holding of one symbol.
type Position struct {
	UserID       string  `json:"user_id"`
	Symbol       string  `json:"symbol"`
	Quantity     int64   `json:"quantity"`
	CostBasis    float64 `json:"cost_basis"`
	AveragePrice float64 `json:"average_price"`
	RealizedPnL  float64 `json:"realized_pnl"`
}

// Key returns "user:symbol".
func (p *Position) Key() string {
	return p.UserID + ":" + p.Symbol
}

// PositionValuation is a position marked to a current price.
type PositionValuation struct {
	Position
	CurrentPrice         float64 `json:"current_price"`
	MarketValue          float64 `json:"market_value"`
	UnrealizedPnL        float64 `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64 `json:"unrealized_pnl_percent"`
}

// Fill is one executed trade applied to a ledger account.
type Fill struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Quantity    int64     `json:"quantity"`
	Price       float64   `json:"price"`
	CashAfter   float64   `json:"cash_after"`
	RealizedPnL float64   `json:"realized_pnl"`
	FilledAt    time.Time `json:"filled_at"`
}

// PortfolioSummary aggregates an account's value at current prices.
type PortfolioSummary struct {
	UserID           string             `json:"user_id"`
	TotalValue       float64            `json:"total_value"`
	Cash             float64            `json:"cash_balance"`
	MarketValue      float64            `json:"market_value"`
	UnrealizedPnL    float64            `json:"unrealized_pnl"`
	RealizedPnL      float64            `json:"realized_pnl"`
	PortfolioReturn  float64            `json:"portfolio_return"` // percent vs starting cash
	PositionsCount   int                `json:"positions_count"`
	SectorAllocation map[string]float64 `json:"sector_allocation"`
	Timestamp        time.Time          `json:"timestamp"`
}
