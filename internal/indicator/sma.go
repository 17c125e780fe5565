package indicator

// SMA returns the mean of the last window prices. A series shorter than
// window is averaged over whatever is available; an empty series yields 0.
func SMA(prices []float64, window int) float64 {
	if window < 1 {
		window = 1
	}
	return mean(tail(prices, window))
}

// SMMA returns the Wilder-smoothed moving average of values.
// The first period values seed an SMA, then each later value is folded in
// as (prev*(period-1) + v) / period. Shorter input is a plain mean.
func SMMA(values []float64, period int) float64 {
	if period < 1 {
		period = 1
	}
	if len(values) < period {
		return mean(values)
	}
	current := mean(values[:period])
	p := float64(period)
	for _, v := range values[period:] {
		current = (current*(p-1) + v) / p
	}
	return current
}
