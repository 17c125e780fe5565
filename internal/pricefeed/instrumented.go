package pricefeed

import (
	"context"
	"time"

	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
)

// Instrument records lookup latency and failures of next.
func Instrument(next model.PriceFeed, m *metrics.Metrics) model.PriceFeed {
	if m == nil {
		return next
	}
	return model.PriceFeedFunc(func(ctx context.Context, symbol string) (float64, error) {
		start := time.Now()
		price, err := next.CurrentPrice(ctx, symbol)
		m.ObservePriceFeed(time.Since(start), err)
		return price, err
	})
}
