package indicators

import "math"

type ATRService struct {
	sma *SMAService
}

func NewATRService() *ATRService {
	return &ATRService{
		sma: NewSMAService(),
	}
}

// Calculate computes the Average True Range. The true range of each bar is
// max(high-low, |high-prevClose|, |low-prevClose|); ATR is the SMA of the
// true ranges over the period. Output length is len(closes)-period, aligned
// to the end of the input. Returns nil when the series is too short.
func (s *ATRService) Calculate(highs, lows, closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	trueRanges := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prevClose := closes[i-1]
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-prevClose), math.Abs(lows[i]-prevClose)))
		trueRanges = append(trueRanges, tr)
	}

	return s.sma.Calculate(trueRanges, period)
}
