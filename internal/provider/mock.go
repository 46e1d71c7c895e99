package provider

import (
	"sync"
	"sync/atomic"
	"time"

	"StockScreener/internal/model"
)

// Mock returns controllable fixed data for development and testing.
type Mock struct {
	Instruments []model.Instrument
	Series      map[string][]model.Bar // per-code canned series
	FailCodes   map[string]bool        // codes that always return ErrNoData
	ListErr     error
	BasePrice   float64

	mu       sync.Mutex
	Requests []int // bar counts requested, in call order
	calls    atomic.Int64
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) ListInstruments() ([]model.Instrument, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Instruments, nil
}

func (m *Mock) GetDailyBars(code string, market, count int) ([]model.Bar, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.Requests = append(m.Requests, count)
	m.mu.Unlock()

	if m.FailCodes[code] {
		return nil, ErrNoData
	}
	if bars, ok := m.Series[code]; ok {
		if len(bars) > count {
			bars = bars[len(bars)-count:]
		}
		return bars, nil
	}
	base := m.BasePrice
	if base == 0 {
		base = 10
	}
	return GenerateBars(base, count), nil
}

// Calls reports how many bar fetches were made across all goroutines.
func (m *Mock) Calls() int { return int(m.calls.Load()) }

// GenerateBars builds a synthetic ascending daily series ending today,
// drifting gently around basePrice.
func GenerateBars(basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Date:     time.Now().AddDate(0, 0, -(count - i)).Truncate(24 * time.Hour),
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			Volume:   1000000,
			Turnover: p * 1000000,
		}
	}
	return bars
}
