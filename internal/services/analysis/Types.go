package analysis

import (
	"time"

	"ForexPilot/internal/services/indicators"
	"ForexPilot/internal/services/patterns"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	TrendUp      = "uptrend"
	TrendDown    = "downtrend"
	TrendNeutral = "neutral"
)

// IndicatorSet is the snapshot of every indicator for one analysis run.
// Each series is aligned so its last element refers to the latest candle.
type IndicatorSet struct {
	SMA20     []float64
	SMA50     []float64
	EMA12     []float64
	EMA26     []float64
	MACD      *indicators.MACDResult
	RSI       []float64
	Bollinger *indicators.BBandsResult
	Stoch     *indicators.StochasticResult
	ATR       []float64
	WilliamsR []float64
}

// Trend describes direction and strength of the prevailing move. Strength
// is the percentage deviation of the current price from the longer moving
// average, signed by direction.
type Trend struct {
	Direction string
	Strength  float64
}

// Decision is the engine's trade recommendation for one analysis run.
type Decision struct {
	Action              string   `json:"action"`
	Confidence          float64  `json:"confidence"`
	BullishSignals      float64  `json:"bullish_signals"`
	BearishSignals      float64  `json:"bearish_signals"`
	Reasons             []string `json:"reasons"`
	RiskLevel           string   `json:"risk_level"`
	SuggestedStopLoss   float64  `json:"suggested_stop_loss"`
	SuggestedTakeProfit float64  `json:"suggested_take_profit"`
}

// Result bundles a decision with the context it was made in.
type Result struct {
	Symbol       string
	TimeFrame    string
	Timestamp    time.Time
	CurrentPrice float64
	Decision     Decision
	Indicators   *IndicatorSet
	Patterns     []patterns.Pattern
	Levels       patterns.SupportResistance
	Trend        Trend
}
