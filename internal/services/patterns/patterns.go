package patterns

import (
	"math"

	"ForexPilot/internal/models"
)

// Pattern is a single candlestick pattern flag. Signal is 1 for bullish,
// -1 for bearish, 0 for neutral formations like a doji.
type Pattern struct {
	Name   string
	Signal int
}

const (
	PatternDoji         = "doji"
	PatternHammer       = "hammer"
	PatternShootingStar = "shooting_star"
	PatternEngulfing    = "engulfing"
)

type Detector struct {
	// dojiRatio is the max body/range ratio for a doji.
	dojiRatio float64
}

func NewDetector() *Detector {
	return &Detector{
		dojiRatio: 0.1,
	}
}

// Detect inspects the last three candles and returns every pattern flag
// found on the latest one. Fewer than three candles yields no patterns.
func (d *Detector) Detect(candles []models.Candle) []Pattern {
	if len(candles) < 3 {
		return nil
	}

	prev := candles[len(candles)-2]
	curr := candles[len(candles)-1]

	var found []Pattern

	body := math.Abs(curr.Close - curr.Open)
	candleRange := curr.High - curr.Low
	upperShadow := curr.High - math.Max(curr.Open, curr.Close)
	lowerShadow := math.Min(curr.Open, curr.Close) - curr.Low

	if candleRange > 0 && body/candleRange < d.dojiRatio {
		found = append(found, Pattern{Name: PatternDoji, Signal: 0})
	}

	if lowerShadow > 2*body && upperShadow < 0.5*body {
		found = append(found, Pattern{Name: PatternHammer, Signal: 1})
	}

	if upperShadow > 2*body && lowerShadow < 0.5*body {
		found = append(found, Pattern{Name: PatternShootingStar, Signal: -1})
	}

	if p := d.checkEngulfing(prev, curr); p != nil {
		found = append(found, *p)
	}

	return found
}

func (d *Detector) checkEngulfing(prev, curr models.Candle) *Pattern {
	prevBody := math.Abs(prev.Close - prev.Open)
	currBody := math.Abs(curr.Close - curr.Open)

	if currBody <= 1.5*prevBody {
		return nil
	}

	prevBullish := prev.Close > prev.Open
	currBullish := curr.Close > curr.Open
	if prevBullish == currBullish {
		return nil
	}

	signal := 1
	if !currBullish {
		signal = -1
	}
	return &Pattern{Name: PatternEngulfing, Signal: signal}
}
