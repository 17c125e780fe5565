// Package indicator provides technical indicator calculations over price series.
//
// Every function is pure: it takes a plain ordered slice of prices (oldest
// first) and returns a value. None of them fail on short input. Each
// indicator has a documented numeric fallback for series shorter than its
// window, so callers always get a number back.
//
// The formulas are the simplified variants used by the simulator's signal
// rules (a single close series stands in for high/low/close), not textbook
// OHLC implementations.
package indicator

// Default windows used by the snapshot engine.
const (
	DefaultRSIPeriod        = 14
	DefaultStochasticPeriod = 14
	DefaultWilliamsPeriod   = 14
	DefaultATRPeriod        = 14
	DefaultADXPeriod        = 14
	DefaultBollingerWindow  = 20
	DefaultBollingerK       = 2.0
	DefaultTrendWindow      = 10
	DefaultLevelsWindow     = 20
)

// Neutral fallbacks returned when a series is too short.
const (
	NeutralRSI        = 50.0
	NeutralStochastic = 50.0
	NeutralWilliamsR  = -50.0
	NeutralADX        = 25.0
)

func last(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	return prices[len(prices)-1]
}

func tail(prices []float64, n int) []float64 {
	if n > len(prices) {
		n = len(prices)
	}
	if n < 0 {
		n = 0
	}
	return prices[len(prices)-n:]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
