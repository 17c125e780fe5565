package indicator

import "math"

// Bands holds Bollinger band levels.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// StdDev returns the population standard deviation of the last window prices.
func StdDev(prices []float64, window int) float64 {
	if window < 1 {
		window = 1
	}
	values := tail(prices, window)
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	acc := 0.0
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)))
}

// Bollinger returns SMA(window) ± k population standard deviations.
func Bollinger(prices []float64, window int, k float64) Bands {
	mid := SMA(prices, window)
	sd := StdDev(prices, window)
	return Bands{
		Upper:  mid + k*sd,
		Middle: mid,
		Lower:  mid - k*sd,
	}
}

// trueRanges collapses OHLC into the close series: high = p[i],
// low = close = p[i-1].
func trueRanges(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		high := prices[i]
		low := prices[i-1]
		prevClose := prices[i-1]
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		out = append(out, tr)
	}
	return out
}

// ATR returns the mean of the last period true ranges, or 0 when fewer
// than period+1 prices exist.
func ATR(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period+1 {
		return 0
	}
	return mean(tail(trueRanges(prices), period))
}
