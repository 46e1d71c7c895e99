package indicator

import "StockScreener/internal/model"

// rsvWindow is the lookback for the stochastic raw value.
const rsvWindow = 9

// RSV computes the 9-day raw stochastic value series:
// (close - LLV(low,9)) / (HHV(high,9) - LLV(low,9)) * 100.
// Positions without a full window, and flat windows where high equals low,
// are 0 rather than undefined.
func RSV(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		if i < rsvWindow-1 {
			continue
		}
		lo := bars[i].Low
		hi := bars[i].High
		for j := i - rsvWindow + 1; j <= i; j++ {
			if bars[j].Low < lo {
				lo = bars[j].Low
			}
			if bars[j].High > hi {
				hi = bars[j].High
			}
		}
		if hi == lo {
			continue
		}
		out[i] = (bars[i].Close - lo) / (hi - lo) * 100
	}
	return out
}

// KDJ derives the stochastic oscillator from a bar series. K and D use the
// unadjusted 1/3 recursion seeded with the first value (not the classical
// period-SMA form); J = 3K - 2D. Selection thresholds are tuned against
// this exact recursion, so it must not be changed.
func KDJ(bars []model.Bar) (k, d, j []float64) {
	rsv := RSV(bars)
	k = EMA(rsv, 1.0/3.0)
	d = EMA(k, 1.0/3.0)
	j = make([]float64, len(bars))
	for i := range j {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}
