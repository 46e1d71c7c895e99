package indicator

import "math"

// SMA computes the simple rolling mean over the given window. Positions
// with fewer than window values are NaN.
func SMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA computes the unadjusted recursive exponential moving average with the
// given smoothing factor alpha, seeded with the first value.
func EMA(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// EMASpan is EMA with the conventional span-derived factor 2/(span+1).
func EMASpan(values []float64, span int) []float64 {
	return EMA(values, 2.0/float64(span+1))
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
