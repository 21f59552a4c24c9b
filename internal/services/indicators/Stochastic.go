package indicators

type StochasticService struct {
	sma *SMAService
}

type StochasticResult struct {
	K []float64
	D []float64
}

func NewStochasticService() *StochasticService {
	return &StochasticService{
		sma: NewSMAService(),
	}
}

// Calculate computes the stochastic oscillator. %K is the position of the
// close within the trailing kPeriod high/low range scaled to 0-100; %D is
// the SMA of %K over dPeriod. Returns nil when the series is too short for
// even one %K value.
func (s *StochasticService) Calculate(highs, lows, closes []float64, kPeriod, dPeriod int) *StochasticResult {
	if kPeriod <= 0 || dPeriod <= 0 {
		return nil
	}
	if len(closes) < kPeriod || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	k := make([]float64, 0, len(closes)-kPeriod+1)
	for i := kPeriod - 1; i < len(closes); i++ {
		highestHigh := highs[i-kPeriod+1]
		lowestLow := lows[i-kPeriod+1]
		for j := i - kPeriod + 2; j <= i; j++ {
			if highs[j] > highestHigh {
				highestHigh = highs[j]
			}
			if lows[j] < lowestLow {
				lowestLow = lows[j]
			}
		}

		if highestHigh == lowestLow {
			k = append(k, 50) // flat window, no direction
			continue
		}
		k = append(k, (closes[i]-lowestLow)/(highestHigh-lowestLow)*100)
	}

	return &StochasticResult{
		K: k,
		D: s.sma.Calculate(k, dPeriod),
	}
}
