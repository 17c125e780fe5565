package indicator

// EMA calculates the Exponential Moving Average seeded with the first price.
//
// multiplier = 2/(window+1); ema = price*multiplier + ema*(1-multiplier) is
// applied over every later price in order. A series shorter than window
// returns its last price unchanged; an empty series returns 0.
func EMA(prices []float64, window int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < window {
		return last(prices)
	}
	multiplier := 2.0 / float64(window+1)
	ema := prices[0]
	for _, price := range prices[1:] {
		ema = (price * multiplier) + (ema * (1 - multiplier))
	}
	return ema
}

// MACD returns EMA(12) - EMA(26).
func MACD(prices []float64) float64 {
	return EMA(prices, 12) - EMA(prices, 26)
}
