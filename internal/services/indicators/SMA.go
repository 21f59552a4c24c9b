package indicators

type SMAService struct{}

func NewSMAService() *SMAService {
	return &SMAService{}
}

// Calculate computes the simple moving average over each trailing window.
// The result is aligned to the end of the input: result[len(result)-1]
// corresponds to prices[len(prices)-1]. Returns nil when the series is
// shorter than the period.
func (s *SMAService) Calculate(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	result := make([]float64, 0, len(prices)-period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	for i := period; i < len(prices); i++ {
		sum += prices[i] - prices[i-period]
		result = append(result, sum/float64(period))
	}

	return result
}

// Latest returns the most recent SMA value, or 0 with ok=false when the
// series is too short.
func (s *SMAService) Latest(prices []float64, period int) (float64, bool) {
	values := s.Calculate(prices, period)
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}
