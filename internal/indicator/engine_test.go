package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshit358/Finsage/internal/model"
	"github.com/Akshit358/Finsage/internal/series"
)

type fakeHistory struct {
	prices []float64
	err    error
}

func (f fakeHistory) Series(ctx context.Context, symbol, timeframe string) ([]float64, error) {
	return f.prices, f.err
}

func fixedEngine(h model.PriceHistory) *Engine {
	e := NewEngine(h, nil)
	e.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }
	return e
}

func TestEngine_Compute(t *testing.T) {
	prices := ramp(1, 60)
	snap := fixedEngine(nil).Compute("AAPL", "1d", prices)

	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, "1d", snap.Timeframe)
	assert.Equal(t, 60, snap.Points)
	assert.Equal(t, 60.0, snap.CurrentPrice)
	assert.InDelta(t, SMA(prices, 20), snap.Indicators.SMA20, tol)
	assert.InDelta(t, SMA(prices, 50), snap.Indicators.SMA50, tol)
	assert.InDelta(t, MACD(prices), snap.Indicators.MACD, tol)
	assert.Equal(t, 100.0, snap.Indicators.RSI)
	assert.InDelta(t, 100.0, snap.Indicators.ADX, tol)
	assert.Equal(t, model.TrendStrongUp, snap.Trend.Trend)
	assert.InDelta(t, StdDev(prices, 20), snap.Volatility, tol)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), snap.Timestamp)

	// RSI overbought (SELL strong) vs MA rising (BUY medium) vs price under upper band
	assert.Equal(t, model.SignalHold, snap.Signals.Overall)
}

func TestEngine_ComputeShortSeriesUsesFallbacks(t *testing.T) {
	snap := fixedEngine(nil).Compute("X", "1h", []float64{10, 11})

	assert.Equal(t, 50.0, snap.Indicators.RSI)
	assert.Equal(t, 50.0, snap.Indicators.Stochastic)
	assert.Equal(t, -50.0, snap.Indicators.WilliamsR)
	assert.Equal(t, 0.0, snap.Indicators.ATR)
	assert.Equal(t, 25.0, snap.Indicators.ADX)
	assert.Equal(t, 11.0, snap.Indicators.EMA12)
}

func TestEngine_ComputeEmpty(t *testing.T) {
	snap := fixedEngine(nil).Compute("X", "1d", nil)

	assert.Equal(t, 0, snap.Points)
	assert.Equal(t, model.TrendSideways, snap.Trend.Trend)
	assert.Equal(t, model.SignalHold, snap.Signals.Overall)
}

func TestEngine_ComputeSeries(t *testing.T) {
	s := series.FromValues("MSFT", ramp(1, 30))
	snap := fixedEngine(nil).ComputeSeries("1d", s)

	assert.Equal(t, "MSFT", snap.Symbol)
	assert.Equal(t, 30, snap.Points)
}

func TestEngine_Analyze(t *testing.T) {
	e := fixedEngine(fakeHistory{prices: ramp(1, 20)})
	snap, err := e.Analyze(context.Background(), "AAPL", "1d")
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Points)

	boom := errors.New("boom")
	_, err = fixedEngine(fakeHistory{err: boom}).Analyze(context.Background(), "AAPL", "1d")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)

	_, err = fixedEngine(nil).Analyze(context.Background(), "AAPL", "1d")
	assert.Error(t, err)
}
