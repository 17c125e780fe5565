package indicator

// Stochastic returns %K over the last period prices:
// (last - min) / (max - min) * 100.
// Returns NeutralStochastic when the window is short or flat.
func Stochastic(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period {
		return NeutralStochastic
	}
	lo, hi := minMax(tail(prices, period))
	if hi == lo {
		return NeutralStochastic
	}
	return (last(prices) - lo) / (hi - lo) * 100
}

// WilliamsR returns %R over the last period prices:
// (max - last) / (max - min) * -100.
// Returns NeutralWilliamsR when the window is short or flat.
func WilliamsR(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period {
		return NeutralWilliamsR
	}
	lo, hi := minMax(tail(prices, period))
	if hi == lo {
		return NeutralWilliamsR
	}
	return (hi - last(prices)) / (hi - lo) * -100
}
