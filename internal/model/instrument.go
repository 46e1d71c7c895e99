package model

import "strings"

// Market identifiers as used by the quote gateway.
const (
	MarketShenzhen = 0 // 000/002/300 prefixes
	MarketShanghai = 1 // 6 prefix
)

// Instrument is a single listed stock.
type Instrument struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market int    `json:"market"`
}

// MarketForCode derives the exchange segment from the code prefix.
// Returns -1 for codes outside the four recognized classes.
func MarketForCode(code string) int {
	switch {
	case len(code) == 6 && strings.HasPrefix(code, "6"):
		return MarketShanghai
	case len(code) == 6 && (strings.HasPrefix(code, "000") ||
		strings.HasPrefix(code, "002") || strings.HasPrefix(code, "300")):
		return MarketShenzhen
	default:
		return -1
	}
}
