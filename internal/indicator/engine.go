package indicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
	"github.com/Akshit358/Finsage/internal/series"
)

// ErrHistoryUnavailable wraps every failure to obtain a price history.
var ErrHistoryUnavailable = errors.New("price history unavailable")

// Engine assembles indicator snapshots. It holds no per-symbol state, so a
// single Engine is safe for concurrent use.
type Engine struct {
	history model.PriceHistory // optional, used by Analyze
	metrics *metrics.Metrics   // optional
	now     func() time.Time
}

// NewEngine creates a snapshot engine. history and m may be nil.
func NewEngine(history model.PriceHistory, m *metrics.Metrics) *Engine {
	return &Engine{
		history: history,
		metrics: m,
		now:     time.Now,
	}
}

// Compute returns the snapshot of every indicator as of the last price.
func (e *Engine) Compute(symbol, timeframe string, prices []float64) model.IndicatorSnapshot {
	start := time.Now()

	bands := Bollinger(prices, DefaultBollingerWindow, DefaultBollingerK)
	ind := model.Indicators{
		SMA20:          SMA(prices, 20),
		SMA50:          SMA(prices, 50),
		EMA12:          EMA(prices, 12),
		EMA26:          EMA(prices, 26),
		RSI:            RSI(prices, DefaultRSIPeriod),
		MACD:           MACD(prices),
		BollingerUpper: bands.Upper,
		BollingerLower: bands.Lower,
		Stochastic:     Stochastic(prices, DefaultStochasticPeriod),
		WilliamsR:      WilliamsR(prices, DefaultWilliamsPeriod),
		ATR:            ATR(prices, DefaultATRPeriod),
		ADX:            ADX(prices, DefaultADXPeriod),
	}
	current := last(prices)

	snap := model.IndicatorSnapshot{
		Symbol:            symbol,
		Timeframe:         timeframe,
		CurrentPrice:      current,
		Points:            len(prices),
		Indicators:        ind,
		Signals:           Signals(current, ind),
		SupportResistance: Levels(prices, DefaultLevelsWindow),
		Trend:             Trend(prices, DefaultTrendWindow),
		Volatility:        StdDev(prices, DefaultBollingerWindow),
		Timestamp:         e.now().UTC(),
	}

	e.metrics.ObserveIndicatorCompute(time.Since(start))
	return snap
}

// ComputeSeries snapshots a PriceSeries.
func (e *Engine) ComputeSeries(timeframe string, s *series.Series) model.IndicatorSnapshot {
	return e.Compute(s.Symbol(), timeframe, s.Values())
}

// Analyze fetches the price history for symbol and computes its snapshot.
func (e *Engine) Analyze(ctx context.Context, symbol, timeframe string) (model.IndicatorSnapshot, error) {
	if e.history == nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("%w: no source configured", ErrHistoryUnavailable)
	}
	prices, err := e.history.Series(ctx, symbol, timeframe)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("%w: %s/%s: %w", ErrHistoryUnavailable, symbol, timeframe, err)
	}
	return e.Compute(symbol, timeframe, prices), nil
}
