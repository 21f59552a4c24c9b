package indicators

import "math"

type BBandsService struct {
	sma *SMAService
}

type BBandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

func NewBBandsService() *BBandsService {
	return &BBandsService{
		sma: NewSMAService(),
	}
}

// Calculate computes Bollinger Bands: middle = SMA(period), upper/lower =
// middle +/- deviations * population standard deviation of each window.
// All three series have length len(prices)-period+1. Returns nil when the
// series is too short.
func (s *BBandsService) Calculate(prices []float64, period int, deviations float64) *BBandsResult {
	middle := s.sma.Calculate(prices, period)
	if middle == nil {
		return nil
	}

	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))

	for i := range middle {
		window := prices[i : i+period]

		squareSum := 0.0
		for _, price := range window {
			diff := price - middle[i]
			squareSum += diff * diff
		}
		stdDev := math.Sqrt(squareSum / float64(period))

		upper[i] = middle[i] + deviations*stdDev
		lower[i] = middle[i] - deviations*stdDev
	}

	return &BBandsResult{
		Upper:  upper,
		Middle: middle,
		Lower:  lower,
	}
}
