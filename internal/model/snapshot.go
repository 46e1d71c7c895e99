package model

import "time"

// StockData couples one instrument's bar series with its acquisition info.
type StockData struct {
	Bars []Bar     `json:"bars"`
	Info StockInfo `json:"info"`
}

// StockInfo describes how and when a series was acquired.
type StockInfo struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Market     int       `json:"market"`
	UpdateTime time.Time `json:"update_time"`
	BarCount   int       `json:"bar_count"`
	TargetDate string    `json:"target_date"` // YYYYMMDD as-of date
}

// MarketSnapshot is the result of one acquisition run: all series keyed by
// code, plus the codes that failed after retries.
type MarketSnapshot struct {
	Date   string               `json:"date"` // YYYYMMDD key
	Stocks map[string]StockData `json:"stocks"`
	Failed []string             `json:"failed"`
}
