package strategy

import "StockScreener/internal/model"

// Thresholds are the B1 rule bounds over the latest feature row.
type Thresholds struct {
	MaxJ      float64
	MinChange float64
	MaxChange float64
	MaxRange  float64
}

// B1 holds the tuned rule: an oversold oscillator on a quiet day while the
// short trend rides above the long one.
var B1 = Thresholds{
	MaxJ:      13,
	MinChange: -2,
	MaxChange: 1.8,
	MaxRange:  7,
}

// Passes evaluates the rule over one feature row. Any undefined indicator
// disqualifies the row; that is a normal "no", not an error.
func (t Thresholds) Passes(r model.FeatureRow) bool {
	if !r.Valid() {
		return false
	}
	return r.J <= t.MaxJ &&
		r.ChangePct >= t.MinChange && r.ChangePct <= t.MaxChange &&
		r.RangePct <= t.MaxRange &&
		r.ShortTrend > r.MultiTrend &&
		r.Close > r.MultiTrend
}
