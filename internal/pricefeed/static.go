package pricefeed

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Static serves fixed quotes. Unknown symbols fail with ErrNoPrice.
type Static struct {
	mu     sync.RWMutex
	prices map[string]float64
	err    error
}

// NewStatic creates a feed over a copy of prices.
func NewStatic(prices map[string]float64) *Static {
	s := &Static{prices: make(map[string]float64, len(prices))}
	for k, v := range prices {
		s.prices[strings.ToUpper(k)] = v
	}
	return s
}

// Set changes the quote for symbol.
func (s *Static) Set(symbol string, price float64) {
	s.mu.Lock()
	s.prices[strings.ToUpper(symbol)] = price
	s.mu.Unlock()
}

// Fail makes every lookup return err until called again with nil.
func (s *Static) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// CurrentPrice implements model.PriceFeed.
func (s *Static) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return 0, s.err
	}
	p, ok := s.prices[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
	}
	return p, nil
}

// StaticHistory serves a fixed history per symbol, ignoring timeframe.
type StaticHistory map[string][]float64

// Series implements model.PriceHistory.
func (h StaticHistory) Series(_ context.Context, symbol, _ string) ([]float64, error) {
	prices, ok := h[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
	}
	out := make([]float64, len(prices))
	copy(out, prices)
	return out, nil
}
