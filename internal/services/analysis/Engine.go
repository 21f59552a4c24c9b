package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"ForexPilot/internal/models"
	"ForexPilot/internal/services/indicators"
	"ForexPilot/internal/services/patterns"
)

const (
	// MinimumCandles is the hard floor below which the engine refuses to
	// analyze. Several indicators assume a 50-bar window; computing on less
	// silently produces garbage signals.
	MinimumCandles = 50

	// DefaultHistoryWindow is how many candles one analysis run pulls.
	DefaultHistoryWindow = 100

	MaxConfidence = 0.95

	levelProximity    = 0.001 // within 0.1% of a support/resistance level
	trendMinStrength  = 1.0   // percent deviation needed to count the trend
	highVolumeRatio   = 1.5
	volumeBonus       = 0.2
	confidenceScale   = 0.8
	supportWindowBars = 5
)

// ErrInsufficientData is returned when fewer than MinimumCandles candles are
// available for a symbol.
var ErrInsufficientData = errors.New("insufficient candle history")

// CandleSource supplies bounded history windows, oldest first.
type CandleSource interface {
	GetRecent(symbol, timeFrame string, limit int) ([]models.Candle, error)
}

// LogStore appends analysis log entries. Failures here must never block the
// decision path.
type LogStore interface {
	Append(entry *models.AnalysisLog) error
}

// Config holds every tunable of the decision engine. All values are explicit
// named fields; there are no inline fallbacks in the scoring path.
type Config struct {
	TimeFrame           string
	HistoryWindow       int
	ConfidenceThreshold float64 // below this, action is forced to hold
	StopLossATRMult     float64
	TakeProfitATRMult   float64
}

type Engine struct {
	cfg     Config
	candles CandleSource
	logs    LogStore

	sma      *indicators.SMAService
	ema      *indicators.EMAService
	macd     *indicators.MACDService
	rsi      *indicators.RSIService
	bbands   *indicators.BBandsService
	stoch    *indicators.StochasticService
	atr      *indicators.ATRService
	williams *indicators.WilliamsRService
	detector *patterns.Detector
}

func NewEngine(cfg Config, candles CandleSource, logs LogStore) *Engine {
	if cfg.HistoryWindow == 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	return &Engine{
		cfg:      cfg,
		candles:  candles,
		logs:     logs,
		sma:      indicators.NewSMAService(),
		ema:      indicators.NewEMAService(),
		macd:     indicators.NewMACDService(),
		rsi:      indicators.NewRSIService(),
		bbands:   indicators.NewBBandsService(),
		stoch:    indicators.NewStochasticService(),
		atr:      indicators.NewATRService(),
		williams: indicators.NewWilliamsRService(),
		detector: patterns.NewDetector(),
	}
}

// Analyze pulls the history window for symbol, computes the indicator
// snapshot and returns a trade recommendation. With fewer than
// MinimumCandles candles it returns a hold result with confidence 0 and
// ErrInsufficientData; it never computes on an under-filled window.
func (e *Engine) Analyze(symbol string) (*Result, error) {
	candles, err := e.candles.GetRecent(symbol, e.cfg.TimeFrame, e.cfg.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load candles for %s: %w", symbol, err)
	}

	if len(candles) < MinimumCandles {
		result := &Result{
			Symbol:    symbol,
			TimeFrame: e.cfg.TimeFrame,
			Timestamp: time.Now(),
			Decision: Decision{
				Action:     ActionHold,
				Confidence: 0,
				RiskLevel:  RiskHigh,
				Reasons: []string{fmt.Sprintf("insufficient data: have %d candles, need %d",
					len(candles), MinimumCandles)},
			},
		}
		e.record(result)
		return result, ErrInsufficientData
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}

	set := e.computeIndicators(closes, highs, lows)
	currentPrice := closes[len(closes)-1]

	trend := e.computeTrend(set, currentPrice)
	pats := e.detector.Detect(candles)
	levels := patterns.FindLevels(highs, lows, supportWindowBars)
	volumeRatio := computeVolumeRatio(volumes)

	decision := e.Decide(set, pats, levels, trend, volumeRatio, currentPrice)

	result := &Result{
		Symbol:       symbol,
		TimeFrame:    e.cfg.TimeFrame,
		Timestamp:    candles[len(candles)-1].Timestamp,
		CurrentPrice: currentPrice,
		Decision:     decision,
		Indicators:   set,
		Patterns:     pats,
		Levels:       levels,
		Trend:        trend,
	}
	e.record(result)
	return result, nil
}

// Decide runs the weighted-vote scoring over one indicator snapshot. It is a
// pure function of its inputs.
func (e *Engine) Decide(set *IndicatorSet, pats []patterns.Pattern,
	levels patterns.SupportResistance, trend Trend,
	volumeRatio, currentPrice float64) Decision {

	var bullish, bearish float64
	var reasons []string

	rsi := last(set.RSI)
	if len(set.RSI) > 0 && rsi < 30 {
		bullish += 2
		reasons = append(reasons, fmt.Sprintf("RSI oversold at %.1f", rsi))
	} else if rsi > 70 {
		bearish += 2
		reasons = append(reasons, fmt.Sprintf("RSI overbought at %.1f", rsi))
	}

	if set.MACD != nil && len(set.MACD.Signal) > 0 {
		macdLine := last(set.MACD.MACD)
		signalLine := last(set.MACD.Signal)
		histogram := last(set.MACD.Histogram)
		if macdLine > signalLine && histogram > 0 {
			bullish += 1.5
			reasons = append(reasons, "MACD bullish crossover")
		} else if macdLine < signalLine && histogram < 0 {
			bearish += 1.5
			reasons = append(reasons, "MACD bearish crossover")
		}
	}

	if set.Bollinger != nil && len(set.Bollinger.Lower) > 0 {
		if currentPrice <= last(set.Bollinger.Lower) {
			bullish += 1
			reasons = append(reasons, "price at lower Bollinger band")
		} else if currentPrice >= last(set.Bollinger.Upper) {
			bearish += 1
			reasons = append(reasons, "price at upper Bollinger band")
		}
	}

	if trend.Direction == TrendUp && trend.Strength > trendMinStrength {
		bullish += 1
		reasons = append(reasons, fmt.Sprintf("uptrend strength %.2f%%", trend.Strength))
	} else if trend.Direction == TrendDown && trend.Strength < -trendMinStrength {
		bearish += 1
		reasons = append(reasons, fmt.Sprintf("downtrend strength %.2f%%", trend.Strength))
	}

	for _, p := range pats {
		switch {
		case p.Signal > 0:
			bullish += 1
			reasons = append(reasons, "bullish pattern: "+p.Name)
		case p.Signal < 0:
			bearish += 1
			reasons = append(reasons, "bearish pattern: "+p.Name)
		}
	}

	if nearLevel(currentPrice, levels.Support) {
		bullish += 0.5
		reasons = append(reasons, "price near support level")
	}
	if nearLevel(currentPrice, levels.Resistance) {
		bearish += 0.5
		reasons = append(reasons, "price near resistance level")
	}

	// High volume is a flat confidence boost applied after the vote ratio,
	// not a per-side signal.
	signalStrength := 0.0
	if volumeRatio > highVolumeRatio {
		signalStrength = volumeBonus
		reasons = append(reasons, fmt.Sprintf("high volume confirmation (%.1fx average)", volumeRatio))
	}

	decision := Decision{
		Action:         ActionHold,
		BullishSignals: bullish,
		BearishSignals: bearish,
		Reasons:        reasons,
	}

	total := bullish + bearish
	if total > 0 {
		winning := math.Max(bullish, bearish)
		if bullish > bearish {
			decision.Action = ActionBuy
		} else if bearish > bullish {
			decision.Action = ActionSell
		}
		decision.Confidence = clamp(winning/total*confidenceScale+signalStrength, 0, MaxConfidence)
	}

	atr := last(set.ATR)
	decision.RiskLevel = riskLevel(decision.Confidence, atr, rsi)

	switch decision.Action {
	case ActionBuy:
		decision.SuggestedStopLoss = currentPrice - atr*e.cfg.StopLossATRMult
		decision.SuggestedTakeProfit = currentPrice + atr*e.cfg.TakeProfitATRMult
	case ActionSell:
		decision.SuggestedStopLoss = currentPrice + atr*e.cfg.StopLossATRMult
		decision.SuggestedTakeProfit = currentPrice - atr*e.cfg.TakeProfitATRMult
	}

	// Below the threshold the action degrades to hold; the computed
	// confidence is kept for logging.
	if decision.Confidence < e.cfg.ConfidenceThreshold && decision.Action != ActionHold {
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("confidence %.2f below threshold %.2f, holding",
				decision.Confidence, e.cfg.ConfidenceThreshold))
		decision.Action = ActionHold
	}

	return decision
}

func (e *Engine) computeIndicators(closes, highs, lows []float64) *IndicatorSet {
	return &IndicatorSet{
		SMA20:     e.sma.Calculate(closes, 20),
		SMA50:     e.sma.Calculate(closes, 50),
		EMA12:     e.ema.Calculate(closes, 12),
		EMA26:     e.ema.Calculate(closes, 26),
		MACD:      e.macd.Calculate(closes, 12, 26, 9),
		RSI:       e.rsi.Calculate(closes, 14),
		Bollinger: e.bbands.Calculate(closes, 20, 2),
		Stoch:     e.stoch.Calculate(highs, lows, closes, 14, 3),
		ATR:       e.atr.Calculate(highs, lows, closes, 14),
		WilliamsR: e.williams.Calculate(highs, lows, closes, 14),
	}
}

// computeTrend compares the short and long moving averages; strength is the
// signed percentage deviation of the current price from the longer average.
func (e *Engine) computeTrend(set *IndicatorSet, currentPrice float64) Trend {
	if len(set.SMA20) == 0 || len(set.SMA50) == 0 {
		return Trend{Direction: TrendNeutral}
	}

	short := last(set.SMA20)
	long := last(set.SMA50)
	deviation := (currentPrice - long) / long * 100

	switch {
	case short > long:
		return Trend{Direction: TrendUp, Strength: deviation}
	case short < long:
		return Trend{Direction: TrendDown, Strength: deviation}
	default:
		return Trend{Direction: TrendNeutral, Strength: deviation}
	}
}

func (e *Engine) record(result *Result) {
	if e.logs == nil {
		return
	}

	payload, err := json.Marshal(result.Decision)
	if err != nil {
		log.Printf("[analysis] failed to encode decision for %s: %v", result.Symbol, err)
		return
	}

	entry := &models.AnalysisLog{
		Symbol:     result.Symbol,
		Action:     result.Decision.Action,
		Confidence: result.Decision.Confidence,
		Decision:   string(payload),
		Timestamp:  result.Timestamp,
	}
	// Logging must never block trading: warn and move on.
	if err := e.logs.Append(entry); err != nil {
		log.Printf("[analysis] failed to persist analysis log for %s: %v", result.Symbol, err)
	}
}

func riskLevel(confidence, atr, rsi float64) string {
	score := 0
	if confidence < 0.6 {
		score += 2
	} else if confidence < 0.75 {
		score += 1
	}
	if atr > 0.002 {
		score += 2
	} else if atr > 0.001 {
		score += 1
	}
	if rsi < 20 || rsi > 80 {
		score += 1
	}

	switch {
	case score <= 2:
		return RiskLow
	case score <= 4:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func computeVolumeRatio(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range volumes {
		sum += v
	}
	avg := sum / float64(len(volumes))
	if avg == 0 {
		return 0
	}
	return volumes[len(volumes)-1] / avg
}

func nearLevel(price float64, levels []float64) bool {
	for _, level := range levels {
		if level == 0 {
			continue
		}
		if math.Abs(price-level)/level <= levelProximity {
			return true
		}
	}
	return false
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
