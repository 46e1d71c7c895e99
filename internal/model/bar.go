package model

import "time"

// Bar represents a single daily candlestick.
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Turnover float64   `json:"turnover"`
}

// TrimAfter returns the bars dated on or before cutoff.
// Bars are expected to be in ascending date order.
func TrimAfter(bars []Bar, cutoff time.Time) []Bar {
	n := len(bars)
	for n > 0 && bars[n-1].Date.After(cutoff) {
		n--
	}
	return bars[:n]
}
