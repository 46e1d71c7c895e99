package strategy

import (
	"sort"

	"github.com/rs/zerolog/log"

	"StockScreener/internal/indicator"
	"StockScreener/internal/model"
)

// Tag names the strategy in artifacts and journal rows.
const Tag = "B1"

// Select evaluates the B1 rule over every series in the snapshot and
// returns the passing instruments with their latest feature values.
// Pure apart from logging; result ordering is ascending by code.
func Select(snap *model.MarketSnapshot, params indicator.Params) *model.SelectionResult {
	result := &model.SelectionResult{
		Strategy: Tag,
		Date:     snap.Date,
	}

	codes := make([]string, 0, len(snap.Stocks))
	for code := range snap.Stocks {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		data := snap.Stocks[code]
		if len(data.Bars) == 0 {
			continue
		}
		result.Evaluated++

		rows := indicator.Compute(data.Bars, params)
		latest := rows[len(rows)-1]
		if !latest.Valid() {
			log.Debug().Str("code", code).Int("bars", len(data.Bars)).
				Msg("skipped: indicators undefined")
			continue
		}
		if !B1.Passes(latest) {
			continue
		}

		log.Debug().Str("code", code).
			Float64("j", latest.J).Float64("change_pct", latest.ChangePct).
			Float64("range_pct", latest.RangePct).Msg("rule passed")
		result.Picks = append(result.Picks, model.Pick{
			Code:       code,
			Name:       data.Info.Name,
			Close:      latest.Close,
			ChangePct:  latest.ChangePct,
			J:          latest.J,
			RangePct:   latest.RangePct,
			ShortTrend: latest.ShortTrend,
			MultiTrend: latest.MultiTrend,
		})
	}

	log.Info().Int("evaluated", result.Evaluated).Int("picked", len(result.Picks)).
		Str("date", snap.Date).Msg("selection complete")
	return result
}
