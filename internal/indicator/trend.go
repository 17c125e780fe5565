package indicator

import (
	"math"

	"github.com/Akshit358/Finsage/internal/model"
)

// strongSlope separates STRONG trends from plain ones.
const strongSlope = 0.5

// Trend classifies the slope (last-first)/n over the last window prices.
func Trend(prices []float64, window int) model.TrendAnalysis {
	if window < 1 {
		window = DefaultTrendWindow
	}
	recent := tail(prices, window)
	if len(recent) == 0 {
		return model.TrendAnalysis{Trend: model.TrendSideways, Strength: model.StrengthWeak}
	}

	slope := (recent[len(recent)-1] - recent[0]) / float64(len(recent))

	var label model.TrendLabel
	switch {
	case slope > strongSlope:
		label = model.TrendStrongUp
	case slope > 0:
		label = model.TrendUp
	case slope < -strongSlope:
		label = model.TrendStrongDown
	case slope < 0:
		label = model.TrendDown
	default:
		label = model.TrendSideways
	}

	strength := model.StrengthWeak
	if math.Abs(slope) > strongSlope {
		strength = model.StrengthStrong
	}
	return model.TrendAnalysis{Trend: label, Slope: slope, Strength: strength}
}

// Levels derives support and resistance from the range of the last window prices.
func Levels(prices []float64, window int) model.SupportResistance {
	if window < 1 {
		window = DefaultLevelsWindow
	}
	lo, hi := minMax(tail(prices, window))
	return model.SupportResistance{
		Resistance1: hi * 1.02,
		Resistance2: hi * 1.05,
		Support1:    lo * 0.98,
		Support2:    lo * 0.95,
	}
}
