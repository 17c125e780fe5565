package indicator

import "math"

// ADX computes a Wilder-style Average Directional Index over the collapsed
// close series. Directional movement comes from consecutive closes and the
// true range from trueRanges, so +DI and -DI always sum to 100 whenever the
// series moves; the result stays in [0, 100].
//
// Returns NeutralADX when fewer than period+1 prices exist.
func ADX(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period+1 {
		return NeutralADX
	}

	tr := trueRanges(prices)
	plusDM := make([]float64, len(tr))
	minusDM := make([]float64, len(tr))
	for i := 1; i < len(prices); i++ {
		move := prices[i] - prices[i-1]
		if move > 0 {
			plusDM[i-1] = move
		} else if move < 0 {
			minusDM[i-1] = -move
		}
	}

	// Wilder running sums seeded with the first period values.
	var sTR, sPlus, sMinus float64
	for i := 0; i < period; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	p := float64(period)
	dx := make([]float64, 0, len(tr)-period+1)
	dx = append(dx, directionalIndex(sPlus, sMinus, sTR))
	for i := period; i < len(tr); i++ {
		sTR = sTR - sTR/p + tr[i]
		sPlus = sPlus - sPlus/p + plusDM[i]
		sMinus = sMinus - sMinus/p + minusDM[i]
		dx = append(dx, directionalIndex(sPlus, sMinus, sTR))
	}

	return SMMA(dx, period)
}

func directionalIndex(plus, minus, tr float64) float64 {
	if tr == 0 {
		return 0
	}
	plusDI := 100 * plus / tr
	minusDI := 100 * minus / tr
	sum := plusDI + minusDI
	if sum == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / sum
}
