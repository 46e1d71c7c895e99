package indicator

import (
	"math"

	"StockScreener/internal/model"
)

// Params configures the four moving-average periods behind the multi-trend
// line. Defaults match the tuned strategy parameters.
type Params struct {
	M1, M2, M3, M4 int
}

// DefaultParams returns the tuned periods 14/28/57/114.
func DefaultParams() Params {
	return Params{M1: 14, M2: 28, M3: 57, M4: 114}
}

// MaxPeriod returns the longest configured moving-average window.
func (p Params) MaxPeriod() int {
	m := p.M1
	for _, v := range []int{p.M2, p.M3, p.M4} {
		if v > m {
			m = v
		}
	}
	return m
}

// MinHistory is the bar count callers should supply so the latest row has
// every indicator defined.
func (p Params) MinHistory() int {
	return p.MaxPeriod() + 30
}

// Compute derives one feature row per bar. Pure function of its input:
// no I/O, deterministic, NaN for indicators that lack history.
func Compute(bars []model.Bar, p Params) []model.FeatureRow {
	n := len(bars)
	rows := make([]model.FeatureRow, n)
	if n == 0 {
		return rows
	}

	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	ma5 := SMA(closes, 5)
	ma1 := SMA(closes, p.M1)
	ma2 := SMA(closes, p.M2)
	ma3 := SMA(closes, p.M3)
	ma4 := SMA(closes, p.M4)
	rsv := RSV(bars)
	k := EMA(rsv, 1.0/3.0)
	d := EMA(k, 1.0/3.0)

	// Short-term trend: double-smoothed 10-period EMA of close.
	short := EMASpan(EMASpan(closes, 10), 10)

	for i := range bars {
		r := model.FeatureRow{Bar: bars[i]}
		r.MA5, r.MA1, r.MA2, r.MA3, r.MA4 = ma5[i], ma1[i], ma2[i], ma3[i], ma4[i]
		r.RSV = rsv[i]
		r.K, r.D = k[i], d[i]
		r.J = 3*k[i] - 2*d[i]

		if i == 0 {
			r.ChangePct = math.NaN()
			r.RangePct = math.NaN()
		} else {
			prev := bars[i-1].Close
			r.ChangePct = (bars[i].Close/prev - 1) * 100
			r.RangePct = (bars[i].High - bars[i].Low) / prev * 100
		}

		r.ShortTrend = short[i]
		r.MultiTrend = (ma1[i] + ma2[i] + ma3[i] + ma4[i]) / 4

		rows[i] = r
	}
	return rows
}
