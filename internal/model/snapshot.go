package model

import "time"

// Signal is a trading recommendation.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Strength qualifies a signal.
type Strength string

const (
	StrengthStrong  Strength = "STRONG"
	StrengthMedium  Strength = "MEDIUM"
	StrengthWeak    Strength = "WEAK"
	StrengthNeutral Strength = "NEUTRAL"
)

// SignalTag is one indicator's vote.
type SignalTag struct {
	Indicator string   `json:"indicator"` // RSI, MA, BB
	Signal    Signal   `json:"signal"`
	Strength  Strength `json:"strength"`
}

// SignalSummary is the aggregated vote across indicators.
type SignalSummary struct {
	Overall  Signal      `json:"overall_signal"`
	Strength Strength    `json:"strength"`
	Signals  []SignalTag `json:"signals"`
}

// TrendLabel classifies the short-term slope.
type TrendLabel string

const (
	TrendStrongUp   TrendLabel = "STRONG_UPTREND"
	TrendUp         TrendLabel = "UPTREND"
	TrendSideways   TrendLabel = "SIDEWAYS"
	TrendDown       TrendLabel = "DOWNTREND"
	TrendStrongDown TrendLabel = "STRONG_DOWNTREND"
)

// TrendAnalysis is the slope-based trend of the most recent points.
type TrendAnalysis struct {
	Trend    TrendLabel `json:"trend"`
	Slope    float64    `json:"slope"`
	Strength Strength   `json:"strength"` // STRONG or WEAK
}

// SupportResistance holds levels derived from the recent range.
type SupportResistance struct {
	Resistance1 float64 `json:"resistance_1"`
	Resistance2 float64 `json:"resistance_2"`
	Support1    float64 `json:"support_1"`
	Support2    float64 `json:"support_2"`
}

// Indicators holds every indicator value as of the last point.
type Indicators struct {
	SMA20          float64 `json:"sma_20"`
	SMA50          float64 `json:"sma_50"`
	EMA12          float64 `json:"ema_12"`
	EMA26          float64 `json:"ema_26"`
	RSI            float64 `json:"rsi"`
	MACD           float64 `json:"macd"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerLower float64 `json:"bollinger_lower"`
	Stochastic     float64 `json:"stochastic"`
	WilliamsR      float64 `json:"williams_r"`
	ATR            float64 `json:"atr"`
	ADX            float64 `json:"adx"`
}

// IndicatorSnapshot is computed on request and never mutated afterwards.
type IndicatorSnapshot struct {
	Symbol            string            `json:"symbol"`
	Timeframe         string            `json:"timeframe"`
	CurrentPrice      float64           `json:"current_price"`
	Points            int               `json:"points"`
	Indicators        Indicators        `json:"indicators"`
	Signals           SignalSummary     `json:"signals"`
	SupportResistance SupportResistance `json:"support_resistance"`
	Trend             TrendAnalysis     `json:"trend_analysis"`
	Volatility        float64           `json:"volatility"`
	Timestamp         time.Time         `json:"timestamp"`
}
