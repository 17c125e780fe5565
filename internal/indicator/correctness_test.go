package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-9

func ramp(from, to float64) []float64 {
	var out []float64
	if from <= to {
		for v := from; v <= to; v++ {
			out = append(out, v)
		}
		return out
	}
	for v := from; v >= to; v-- {
		out = append(out, v)
	}
	return out
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ────────────────────────────────────────────────────────────
// Moving averages
// ────────────────────────────────────────────────────────────

func TestSMA(t *testing.T) {
	testTable := []struct {
		name   string
		prices []float64
		window int
		expect float64
	}{
		{name: "full window", prices: []float64{1, 2, 3, 4, 5}, window: 3, expect: 4},
		{name: "short series averages available", prices: []float64{1, 2, 3, 4, 5}, window: 10, expect: 3},
		{name: "single point", prices: []float64{42}, window: 20, expect: 42},
		{name: "empty", prices: nil, window: 20, expect: 0},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			assert.InDelta(t, testCase.expect, SMA(testCase.prices, testCase.window), tol)
		})
	}
}

func TestEMA_SeededWithFirstPrice(t *testing.T) {
	// multiplier = 0.5; 1 → 1.5 → 2.25
	assert.InDelta(t, 2.25, EMA([]float64{1, 2, 3}, 3), tol)

	// multiplier = 1/3 over 44, 44.25, 44.5
	m := 2.0 / 6.0
	want := 44.0
	for _, p := range []float64{44.25, 44.5, 43.75, 44.5} {
		want = p*m + want*(1-m)
	}
	assert.InDelta(t, want, EMA([]float64{44, 44.25, 44.5, 43.75, 44.5}, 5), tol)
}

func TestEMA_ShortSeriesReturnsLast(t *testing.T) {
	prices := []float64{101.5, 99.25, 100.75}
	assert.Equal(t, 100.75, EMA(prices, 12))
	assert.Equal(t, 100.75, EMA(prices, 26))
	assert.Equal(t, 0.0, EMA(nil, 12))
}

func TestMACD(t *testing.T) {
	prices := ramp(1, 40)
	assert.InDelta(t, EMA(prices, 12)-EMA(prices, 26), MACD(prices), tol)

	// Short series: both EMAs fall back to the last price
	assert.Equal(t, 0.0, MACD([]float64{5, 6, 7}))
}

func TestSMMA(t *testing.T) {
	// seed (100+102+104)/3 = 102; then (102*2+103)/3; then (...*2+105)/3
	want := (102.0*2 + 103) / 3
	want = (want*2 + 105) / 3
	assert.InDelta(t, want, SMMA([]float64{100, 102, 104, 103, 105}, 3), tol)
	assert.InDelta(t, 1.5, SMMA([]float64{1, 2}, 5), tol)
	assert.Equal(t, 0.0, SMMA(nil, 3))
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_DecliningSeries(t *testing.T) {
	prices := []float64{100, 101, 99, 98, 97, 96, 95, 94, 93, 92, 91, 90, 89, 88, 87}

	// gains: 1; losses: 2 + 12*1 = 14 → RS = (1/14)/(14/14)
	rs := (1.0 / 14) / (14.0 / 14)
	want := 100 - 100/(1+rs)

	got := RSI(prices, 14)
	assert.InDelta(t, want, got, tol)
	assert.Less(t, got, 50.0)
}

func TestRSI_Fallbacks(t *testing.T) {
	assert.Equal(t, 50.0, RSI(ramp(1, 14), 14), "fewer than period+1 points")
	assert.Equal(t, 50.0, RSI(nil, 14))
	assert.Equal(t, 100.0, RSI(ramp(1, 15), 14), "no losses")
	assert.Equal(t, 100.0, RSI(flat(10, 30), 14), "flat series has zero average loss")
}

func TestRSI_OnlyLastPeriodDeltasCount(t *testing.T) {
	// A big early drop outside the window must not affect the value.
	prices := append([]float64{1000}, ramp(1, 15)...)
	assert.Equal(t, 100.0, RSI(prices, 14))
}

func TestRSI_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 15 + rng.Intn(100)
		prices := make([]float64, n)
		prices[0] = 100
		for j := 1; j < n; j++ {
			prices[j] = prices[j-1] * (1 + rng.Float64()*0.1 - 0.05)
		}
		v := RSI(prices, 14)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

// ────────────────────────────────────────────────────────────
// Oscillators
// ────────────────────────────────────────────────────────────

func TestStochastic(t *testing.T) {
	assert.InDelta(t, 100.0, Stochastic(ramp(1, 14), 14), tol)
	assert.InDelta(t, 0.0, Stochastic(ramp(14, 1), 14), tol)
	assert.InDelta(t, 50.0, Stochastic([]float64{0, 5, 10, 2, 8, 5}, 6), tol)
	assert.Equal(t, 50.0, Stochastic(ramp(1, 13), 14), "short")
	assert.Equal(t, 50.0, Stochastic(flat(3, 20), 14), "flat")
}

func TestWilliamsR(t *testing.T) {
	assert.InDelta(t, 0.0, WilliamsR(ramp(1, 14), 14), tol)
	assert.InDelta(t, -100.0, WilliamsR(ramp(14, 1), 14), tol)
	assert.Equal(t, -50.0, WilliamsR(ramp(1, 13), 14), "short")
	assert.Equal(t, -50.0, WilliamsR(flat(3, 20), 14), "flat")
}

// ────────────────────────────────────────────────────────────
// Volatility
// ────────────────────────────────────────────────────────────

func TestBollinger_PopulationStdDev(t *testing.T) {
	// mean 5, population stddev 2
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	bands := Bollinger(prices, 20, 2)

	assert.InDelta(t, 5.0, bands.Middle, tol)
	assert.InDelta(t, 9.0, bands.Upper, tol)
	assert.InDelta(t, 1.0, bands.Lower, tol)
	assert.InDelta(t, 2.0, StdDev(prices, 20), tol)
}

func TestBollinger_UsesLastWindow(t *testing.T) {
	prices := append(ramp(1, 100), flat(50, 20)...)
	bands := Bollinger(prices, 20, 2)
	assert.InDelta(t, 50.0, bands.Upper, tol)
	assert.InDelta(t, 50.0, bands.Lower, tol)
}

func TestATR(t *testing.T) {
	// true ranges collapse to |delta|: 1, 2, 3
	assert.InDelta(t, 2.0, ATR([]float64{1, 2, 4, 7}, 3), tol)
	assert.InDelta(t, 2.0, ATR([]float64{7, 4, 2, 1, 3}, 4), tol)
	assert.Equal(t, 0.0, ATR([]float64{1, 2, 4}, 3), "fewer than period+1")
}

func TestADX(t *testing.T) {
	assert.Equal(t, 25.0, ADX(ramp(1, 14), 14), "fallback")
	assert.InDelta(t, 100.0, ADX(ramp(1, 40), 14), tol, "one-directional series")
	assert.InDelta(t, 0.0, ADX(flat(10, 40), 14), tol, "flat series")

	zigzag := make([]float64, 60)
	for i := range zigzag {
		zigzag[i] = 100 + math.Mod(float64(i), 2)
	}
	v := ADX(zigzag, 14)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 25.0)
}

// ────────────────────────────────────────────────────────────
// Trend and levels
// ────────────────────────────────────────────────────────────

func TestTrend(t *testing.T) {
	testTable := []struct {
		name     string
		prices   []float64
		trend    string
		strength string
	}{
		{name: "strong up", prices: ramp(1, 10), trend: "STRONG_UPTREND", strength: "STRONG"},
		{name: "strong down", prices: ramp(10, 1), trend: "STRONG_DOWNTREND", strength: "STRONG"},
		{name: "up", prices: []float64{10, 10.1, 10.2, 10.3}, trend: "UPTREND", strength: "WEAK"},
		{name: "down", prices: []float64{10.3, 10.2, 10.1, 10}, trend: "DOWNTREND", strength: "WEAK"},
		{name: "sideways", prices: flat(5, 12), trend: "SIDEWAYS", strength: "WEAK"},
		{name: "slope exactly 0.5 is not strong", prices: []float64{0, 1, 2, 3, 4, 4, 4, 4, 4, 5}, trend: "UPTREND", strength: "WEAK"},
		{name: "empty", prices: nil, trend: "SIDEWAYS", strength: "WEAK"},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			got := Trend(testCase.prices, 10)
			assert.Equal(t, testCase.trend, string(got.Trend))
			assert.Equal(t, testCase.strength, string(got.Strength))
		})
	}
}

func TestTrend_UsesLastTenPoints(t *testing.T) {
	prices := append(ramp(100, 1), ramp(1, 10)...)
	got := Trend(prices, 10)
	assert.InDelta(t, 0.9, got.Slope, tol)
}

func TestLevels(t *testing.T) {
	got := Levels([]float64{10, 15, 20}, 20)
	assert.InDelta(t, 20.4, got.Resistance1, tol)
	assert.InDelta(t, 21.0, got.Resistance2, tol)
	assert.InDelta(t, 9.8, got.Support1, tol)
	assert.InDelta(t, 9.5, got.Support2, tol)
}
