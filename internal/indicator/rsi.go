package indicator

// RSI calculates the Relative Strength Index from simple averages of the
// last period gains and losses.
//
// Returns NeutralRSI when fewer than period+1 prices exist, and 100 when the
// average loss is zero.
func RSI(prices []float64, period int) float64 {
	if period < 1 {
		period = DefaultRSIPeriod
	}
	if len(prices) < period+1 {
		return NeutralRSI
	}

	// Only the last period deltas contribute.
	start := len(prices) - period
	gains, losses := 0.0, 0.0
	for i := start; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
