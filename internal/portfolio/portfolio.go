// Package portfolio derives portfolio-level views from the ledger.
//
// It marks positions to the latest feed price, aggregates a summary with
// return and sector allocation, and screens orders against risk limits.
package portfolio

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Akshit358/Finsage/internal/ledger"
	"github.com/Akshit358/Finsage/internal/model"
)

// SectorOther is the sector of every symbol missing from the sector map.
const SectorOther = "Other"

var sectors = map[string]string{
	"AAPL":  "Technology",
	"MSFT":  "Technology",
	"GOOGL": "Technology",
	"META":  "Technology",
	"NVDA":  "Technology",
	"AMZN":  "Consumer",
	"TSLA":  "Automotive",
	"NFLX":  "Communication",
}

// Sector returns the sector a symbol belongs to.
func Sector(symbol string) string {
	if s, ok := sectors[symbol]; ok {
		return s
	}
	return SectorOther
}

// Service builds portfolio views for ledger accounts.
type Service struct {
	ledger *ledger.Ledger
	feed   model.PriceFeed
	now    func() time.Time
}

// NewService creates a Service that prices positions with feed.
func NewService(l *ledger.Ledger, feed model.PriceFeed) *Service {
	return &Service{ledger: l, feed: feed, now: time.Now}
}

// Positions returns the user's open positions marked to current prices.
func (s *Service) Positions(ctx context.Context, userID string) ([]model.PositionValuation, error) {
	return s.ledger.Valuations(ctx, userID, s.feed)
}

// Summary aggregates the user's account at current prices.
func (s *Service) Summary(ctx context.Context, userID string) (model.PortfolioSummary, error) {
	vals, err := s.ledger.Valuations(ctx, userID, s.feed)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	cash := decimal.NewFromFloat(s.ledger.Cash(userID))
	market := decimal.Zero
	unrealized := decimal.Zero
	bySector := make(map[string]decimal.Decimal)
	for _, v := range vals {
		mv := decimal.NewFromFloat(v.MarketValue)
		market = market.Add(mv)
		unrealized = unrealized.Add(decimal.NewFromFloat(v.UnrealizedPnL))
		sec := Sector(v.Symbol)
		bySector[sec] = bySector[sec].Add(mv)
	}

	allocation := make(map[string]float64, len(bySector))
	if !market.IsZero() {
		hundred := decimal.NewFromInt(100)
		for sec, mv := range bySector {
			allocation[sec], _ = mv.Div(market).Mul(hundred).Float64()
		}
	}

	total := cash.Add(market)
	start := decimal.NewFromFloat(s.ledger.StartingCash())

	out := model.PortfolioSummary{
		UserID:           userID,
		RealizedPnL:      s.ledger.RealizedPnL(userID),
		PositionsCount:   len(vals),
		SectorAllocation: allocation,
		Timestamp:        s.now(),
	}
	out.TotalValue, _ = total.Float64()
	out.Cash, _ = cash.Float64()
	out.MarketValue, _ = market.Float64()
	out.UnrealizedPnL, _ = unrealized.Float64()
	out.PortfolioReturn, _ = total.Sub(start).Div(start).Mul(decimal.NewFromInt(100)).Float64()
	return out, nil
}
