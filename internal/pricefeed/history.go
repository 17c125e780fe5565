package pricefeed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Akshit358/Finsage/internal/model"
)

// DefaultWalkStep is the max per-point move of a generated history.
const DefaultWalkStep = 0.05

// Points returns how many prices a generated history holds for timeframe.
func Points(timeframe string) int {
	if timeframe == "1d" {
		return 100
	}
	return 50
}

// RandomWalk generates a price history starting at the feed's current
// price, each point a uniform +/- step move from the previous one.
// Histories are regenerated on every call.
type RandomWalk struct {
	feed model.PriceFeed
	step float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomWalk creates a history source seeded from feed. seed 0 seeds
// from the clock.
func NewRandomWalk(feed model.PriceFeed, step float64, seed int64) *RandomWalk {
	if step <= 0 {
		step = DefaultWalkStep
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomWalk{
		feed: feed,
		step: step,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Series implements model.PriceHistory.
func (w *RandomWalk) Series(ctx context.Context, symbol, timeframe string) ([]float64, error) {
	start, err := w.feed.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}

	n := Points(timeframe)
	prices := make([]float64, n)
	prices[0] = start

	w.mu.Lock()
	for i := 1; i < n; i++ {
		change := (w.rng.Float64()*2 - 1) * w.step
		prices[i] = prices[i-1] * (1 + change)
	}
	w.mu.Unlock()

	return prices, nil
}
