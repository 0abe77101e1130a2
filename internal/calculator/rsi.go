package calculator

// CalculateRSI computes the Wilder-smoothed RSI over the given period for
// every position in the input. The leading `period` values are 0 since no
// full lookback window exists there yet. Returns nil if fewer than period+1
// prices are available or the period is not positive.
func CalculateRSI(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	// Seed with the simple mean over the first `period` changes
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, len(closes))
	for i := period; i < len(closes); i++ {
		if i > period {
			// Wilder smoothing for the remaining changes
			avgGain = (avgGain*float64(period-1) + gains[i-1]) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + losses[i-1]) / float64(period)
		}
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100.0
		}
		return 0.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// LastRSI returns the most recent RSI value, or 0.0 when there is not enough
// data. Callers must treat 0.0 as inconclusive, not as a genuine oversold
// reading.
func LastRSI(closes []float64, period int) float64 {
	values := CalculateRSI(closes, period)
	if len(values) == 0 {
		return 0.0
	}
	return values[len(values)-1]
}
