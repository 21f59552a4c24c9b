package indicators

type WilliamsRService struct{}

func NewWilliamsRService() *WilliamsRService {
	return &WilliamsRService{}
}

// Calculate computes Williams %R: (highestHigh-close)/(highestHigh-lowestLow)
// * -100 over the trailing window, so values range from -100 (weakest) to 0
// (strongest). Output length is len(closes)-period+1. Returns nil when the
// series is too short.
func (s *WilliamsRService) Calculate(highs, lows, closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	result := make([]float64, 0, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		highestHigh := highs[i-period+1]
		lowestLow := lows[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if highs[j] > highestHigh {
				highestHigh = highs[j]
			}
			if lows[j] < lowestLow {
				lowestLow = lows[j]
			}
		}

		if highestHigh == lowestLow {
			result = append(result, -50)
			continue
		}
		result = append(result, (highestHigh-closes[i])/(highestHigh-lowestLow)*-100)
	}

	return result
}
