package model

import "math"

// FeatureRow is one daily bar augmented with all derived indicators.
// Indicators that cannot be computed yet (not enough history) are NaN.
type FeatureRow struct {
	Bar

	MA5 float64
	MA1 float64 // M1-period moving average
	MA2 float64
	MA3 float64
	MA4 float64

	RSV float64
	K   float64
	D   float64
	J   float64

	ChangePct float64 // day-over-day close change, percent
	RangePct  float64 // (high-low)/prev close, percent

	ShortTrend float64 // EMA(EMA(close,10),10)
	MultiTrend float64 // mean of the four M-period moving averages
}

// Valid reports whether every indicator the selection rule reads is defined.
func (r FeatureRow) Valid() bool {
	for _, v := range []float64{r.J, r.ChangePct, r.RangePct, r.ShortTrend, r.MultiTrend} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
