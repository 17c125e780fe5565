// Package pricefeed provides the price collaborators the order and
// indicator engines consume: a synthetic quote feed, a random-walk
// history generator, and decorators for caching, circuit breaking and
// instrumentation.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrNoPrice       = errors.New("no price for symbol")
)

// DefaultJitter is the +/- fraction applied around the base price.
const DefaultJitter = 0.02

// DefaultBasePrice quotes symbols missing from the base table.
const DefaultBasePrice = 100.0

// BasePrices is the reference quote per symbol.
var BasePrices = map[string]float64{
	"AAPL":  175.0,
	"MSFT":  350.0,
	"GOOGL": 2800.0,
	"AMZN":  3200.0,
	"TSLA":  250.0,
	"META":  300.0,
	"NVDA":  450.0,
	"NFLX":  400.0,
	"SPY":   450.0,
	"QQQ":   380.0,
	"IWM":   200.0,
	"DIA":   350.0,
	"VIX":   20.0,
}

// Synthetic quotes every symbol at its base price with a uniform random
// jitter, rounded to cents. A jitter of 0 makes it deterministic.
type Synthetic struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter float64
	bases  map[string]float64
}

// NewSynthetic creates a feed over BasePrices. seed 0 seeds from the clock.
func NewSynthetic(jitter float64, seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	bases := make(map[string]float64, len(BasePrices))
	for k, v := range BasePrices {
		bases[k] = v
	}
	return &Synthetic{
		rng:    rand.New(rand.NewSource(seed)),
		jitter: math.Abs(jitter),
		bases:  bases,
	}
}

// SetBase overrides the base price of one symbol.
func (s *Synthetic) SetBase(symbol string, price float64) {
	s.mu.Lock()
	s.bases[strings.ToUpper(symbol)] = price
	s.mu.Unlock()
}

// CurrentPrice implements model.PriceFeed.
func (s *Synthetic) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSymbol)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok := s.bases[symbol]
	if !ok {
		base = DefaultBasePrice
	}
	if s.jitter == 0 {
		return roundCents(base), nil
	}
	change := (s.rng.Float64()*2 - 1) * s.jitter
	return roundCents(base * (1 + change)), nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
