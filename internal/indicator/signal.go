package indicator

import "github.com/Akshit358/Finsage/internal/model"

// Signal thresholds.
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

var strengthRank = map[model.Strength]int{
	model.StrengthWeak:   1,
	model.StrengthMedium: 2,
	model.StrengthStrong: 3,
}

// Signals classifies the indicators against the current price and
// aggregates them into an overall BUY/SELL/HOLD by majority vote.
//
// Rules, evaluated in this order:
//   - RSI > 70 → SELL strong; RSI < 30 → BUY strong
//   - price > SMA20 > SMA50 → BUY medium; price < SMA20 < SMA50 → SELL medium
//   - price > upper band → SELL weak; price < lower band → BUY weak
//
// Ties resolve to HOLD. The overall strength is that of the strongest tag
// on the winning side, or NEUTRAL on HOLD.
func Signals(price float64, ind model.Indicators) model.SignalSummary {
	tags := make([]model.SignalTag, 0, 3)

	if ind.RSI > RSIOverbought {
		tags = append(tags, model.SignalTag{Indicator: "RSI", Signal: model.SignalSell, Strength: model.StrengthStrong})
	} else if ind.RSI < RSIOversold {
		tags = append(tags, model.SignalTag{Indicator: "RSI", Signal: model.SignalBuy, Strength: model.StrengthStrong})
	}

	if price > ind.SMA20 && ind.SMA20 > ind.SMA50 {
		tags = append(tags, model.SignalTag{Indicator: "MA", Signal: model.SignalBuy, Strength: model.StrengthMedium})
	} else if price < ind.SMA20 && ind.SMA20 < ind.SMA50 {
		tags = append(tags, model.SignalTag{Indicator: "MA", Signal: model.SignalSell, Strength: model.StrengthMedium})
	}

	if price > ind.BollingerUpper {
		tags = append(tags, model.SignalTag{Indicator: "BB", Signal: model.SignalSell, Strength: model.StrengthWeak})
	} else if price < ind.BollingerLower {
		tags = append(tags, model.SignalTag{Indicator: "BB", Signal: model.SignalBuy, Strength: model.StrengthWeak})
	}

	buys, sells := 0, 0
	for _, tag := range tags {
		switch tag.Signal {
		case model.SignalBuy:
			buys++
		case model.SignalSell:
			sells++
		}
	}

	summary := model.SignalSummary{
		Overall:  model.SignalHold,
		Strength: model.StrengthNeutral,
		Signals:  tags,
	}
	switch {
	case buys > sells:
		summary.Overall = model.SignalBuy
	case sells > buys:
		summary.Overall = model.SignalSell
	default:
		return summary
	}

	best := 0
	for _, tag := range tags {
		if tag.Signal == summary.Overall && strengthRank[tag.Strength] > best {
			best = strengthRank[tag.Strength]
			summary.Strength = tag.Strength
		}
	}
	return summary
}
