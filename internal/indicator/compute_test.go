package indicator

import (
	"math"
	"testing"
	"time"

	"StockScreener/internal/model"
)

func barsFromCloses(closes []float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   c * 0.99,
			High:   c * 1.01,
			Low:    c * 0.98,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func rampCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 10 + 0.05*float64(i) + 0.3*math.Sin(float64(i)/3)
	}
	return closes
}

func TestCompute_Deterministic(t *testing.T) {
	bars := barsFromCloses(rampCloses(150))
	p := DefaultParams()

	a := Compute(bars, p)
	b := Compute(bars, p)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		for name, pair := range map[string][2]float64{
			"MA4":        {a[i].MA4, b[i].MA4},
			"J":          {a[i].J, b[i].J},
			"ShortTrend": {a[i].ShortTrend, b[i].ShortTrend},
			"MultiTrend": {a[i].MultiTrend, b[i].MultiTrend},
			"ChangePct":  {a[i].ChangePct, b[i].ChangePct},
		} {
			if math.Float64bits(pair[0]) != math.Float64bits(pair[1]) {
				t.Fatalf("row %d: %s not bit-identical: %v vs %v", i, name, pair[0], pair[1])
			}
		}
	}
}

func TestCompute_JIdentity(t *testing.T) {
	rows := Compute(barsFromCloses(rampCloses(60)), DefaultParams())
	for i, r := range rows {
		want := 3*r.K - 2*r.D
		if r.J != want {
			t.Errorf("row %d: J=%v, want 3K-2D=%v", i, r.J, want)
		}
	}
}

func TestRSV_FlatWindowIsZero(t *testing.T) {
	// All bars identical: the 9-bar high equals the 9-bar low.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 10
	}
	bars := barsFromCloses(closes)
	for i := range bars {
		bars[i].High = 10
		bars[i].Low = 10
	}

	for i, v := range RSV(bars) {
		if v != 0 {
			t.Errorf("bar %d: flat window RSV = %v, want 0", i, v)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("bar %d: RSV must never be NaN/Inf, got %v", i, v)
		}
	}
}

func TestRSV_LeadingWindowIsZero(t *testing.T) {
	rsv := RSV(barsFromCloses(rampCloses(20)))
	for i := 0; i < 8; i++ {
		if rsv[i] != 0 {
			t.Errorf("bar %d: leading RSV = %v, want 0", i, rsv[i])
		}
	}
	if rsv[9] == 0 {
		t.Error("expected nonzero RSV once the window is full")
	}
}

func TestSMA_WindowBoundary(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	out := SMA(vals, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("position %d: want NaN before window fills, got %v", i, out[i])
		}
	}
	if out[2] != 2 || out[3] != 3 || out[4] != 4 {
		t.Errorf("unexpected SMA values: %v", out[2:])
	}
}

func TestCompute_ShortHistoryUndefined(t *testing.T) {
	p := DefaultParams()
	// Fewer bars than M4: the longest MA, hence the multi-trend, cannot exist.
	rows := Compute(barsFromCloses(rampCloses(p.M4-10)), p)
	latest := rows[len(rows)-1]
	if !math.IsNaN(latest.MultiTrend) {
		t.Errorf("multi-trend should be undefined with %d bars, got %v", p.M4-10, latest.MultiTrend)
	}
	if latest.Valid() {
		t.Error("row with undefined multi-trend must not be valid")
	}
}

func TestCompute_ChangeAndRange(t *testing.T) {
	bars := barsFromCloses([]float64{100, 102})
	bars[1].High = 103
	bars[1].Low = 99
	rows := Compute(bars, DefaultParams())

	if !math.IsNaN(rows[0].ChangePct) || !math.IsNaN(rows[0].RangePct) {
		t.Error("first bar has no previous close; change/range must be undefined")
	}
	if got, want := rows[1].ChangePct, 2.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("change%% = %v, want %v", got, want)
	}
	if got, want := rows[1].RangePct, 4.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("range%% = %v, want %v", got, want)
	}
}

func TestEMA_Recursion(t *testing.T) {
	out := EMA([]float64{9, 12, 6}, 1.0/3.0)
	if out[0] != 9 {
		t.Errorf("EMA seed = %v, want first value 9", out[0])
	}
	if want := 9 + (12.0-9)/3; out[1] != want {
		t.Errorf("EMA[1] = %v, want %v", out[1], want)
	}
	if want := 10 + (6.0-10)/3; out[2] != want {
		t.Errorf("EMA[2] = %v, want %v", out[2], want)
	}
}

func TestParams_MinHistory(t *testing.T) {
	p := DefaultParams()
	if got := p.MinHistory(); got != 144 {
		t.Errorf("MinHistory = %d, want 144", got)
	}
	if got := (Params{M1: 5, M2: 200, M3: 10, M4: 20}).MaxPeriod(); got != 200 {
		t.Errorf("MaxPeriod = %d, want 200", got)
	}
}
