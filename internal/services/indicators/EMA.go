package indicators

// EMAService provides Exponential Moving Average calculations
type EMAService struct{}

// NewEMAService creates a new EMA service instance
func NewEMAService() *EMAService {
	return &EMAService{}
}

// Calculate computes EMA for the price series. The first output value is the
// SMA of the first period points; each subsequent value applies the standard
// smoothing k = 2/(period+1). Output length is len(prices)-period+1, aligned
// to the end of the input. Returns nil when the series is too short.
func (s *EMAService) Calculate(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	multiplier := s.getMultiplier(period)

	ema := make([]float64, 0, len(prices)-period+1)
	ema = append(ema, s.initialSMA(prices, period))

	for i := period; i < len(prices); i++ {
		prev := ema[len(ema)-1]
		ema = append(ema, s.calculatePoint(prices[i], prev, multiplier))
	}

	return ema
}

// CalculatePoint advances an EMA by one price using the previous EMA value.
func (s *EMAService) CalculatePoint(price, prevEMA float64, period int) float64 {
	return s.calculatePoint(price, prevEMA, s.getMultiplier(period))
}

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) initialSMA(prices []float64, period int) float64 {
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

func (s *EMAService) calculatePoint(price, prevEMA, multiplier float64) float64 {
	return (price-prevEMA)*multiplier + prevEMA
}
