package patterns

// SupportResistance holds the most recent local price levels, newest last.
type SupportResistance struct {
	Support    []float64
	Resistance []float64
}

// FindLevels extracts local extrema from the high/low series. A high at
// index i is a resistance level when it is >= every high in [i-w, i+w];
// supports are the mirror condition on lows. At most the three most recent
// levels per side are returned.
func FindLevels(highs, lows []float64, window int) SupportResistance {
	if window <= 0 {
		window = 5
	}

	var sr SupportResistance

	for i := window; i < len(highs)-window; i++ {
		if isLocalMax(highs, i, window) {
			sr.Resistance = append(sr.Resistance, highs[i])
		}
		if isLocalMin(lows, i, window) {
			sr.Support = append(sr.Support, lows[i])
		}
	}

	sr.Resistance = lastN(sr.Resistance, 3)
	sr.Support = lastN(sr.Support, 3)
	return sr
}

func isLocalMax(values []float64, i, window int) bool {
	for j := i - window; j <= i+window; j++ {
		if values[j] > values[i] {
			return false
		}
	}
	return true
}

func isLocalMin(values []float64, i, window int) bool {
	for j := i - window; j <= i+window; j++ {
		if values[j] < values[i] {
			return false
		}
	}
	return true
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
