// Package indicator computes RSI and MACD series from close prices.
// All functions are pure and never return NaN to callers.
package indicator

import "math"

const (
	DefaultRSIPeriod  = 14
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACDResult holds the three MACD component series, aligned with the input.
type MACDResult struct {
	DIF  []float64
	DEA  []float64
	Hist []float64
}

// EMA computes an exponential moving average with alpha = 2/(span+1),
// seeded with the first value.
func EMA(values []float64, span int) []float64 {
	return smoothed(values, 2.0/(float64(span)+1.0))
}

func smoothed(values []float64, alpha float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI computes the Relative Strength Index over closes with Wilder-style
// smoothing (alpha = 1/period). The first period positions are warm-up and
// are backfilled with the first settled value, so every output lies in
// [0, 100]. A zero average loss saturates at 100.
func RSI(closes []float64, period int) []float64 {
	if len(closes) == 0 {
		return nil
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}

	avgGain := smoothed(gains, 1.0/float64(period))
	avgLoss := smoothed(losses, 1.0/float64(period))

	out := make([]float64, len(closes))
	for i := range out {
		if i < period {
			out[i] = math.NaN()
			continue
		}
		out[i] = rsiValue(avgGain[i], avgLoss[i])
	}
	if len(out) <= period {
		// Degenerate short series: settle on the last smoothed value.
		last := len(out) - 1
		out[last] = rsiValue(avgGain[last], avgLoss[last])
	}
	return Backfill(out)
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD computes dif = EMA(fast) - EMA(slow), dea = EMA(dif, signal) and the
// doubled histogram hist = 2 * (dif - dea). The decision thresholds in the
// signal package assume the doubled histogram; keep them in sync when tuning.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	if len(closes) == 0 {
		return MACDResult{}
	}
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = emaFast[i] - emaSlow[i]
	}
	dea := EMA(dif, signal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = 2 * (dif[i] - dea[i])
	}

	return MACDResult{
		DIF:  Backfill(dif),
		DEA:  Backfill(dea),
		Hist: Backfill(hist),
	}
}

// Backfill replaces leading NaN entries with the first defined value, in
// place, and returns the slice. A series with no defined value is zeroed.
func Backfill(values []float64) []float64 {
	first := math.NaN()
	firstIdx := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			first = v
			firstIdx = i
			break
		}
	}
	if firstIdx == -1 {
		for i := range values {
			values[i] = 0
		}
		return values
	}
	for i := 0; i < firstIdx; i++ {
		values[i] = first
	}
	// Interior NaNs should not occur, but never let one escape.
	for i := firstIdx + 1; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			values[i] = values[i-1]
		}
	}
	return values
}
