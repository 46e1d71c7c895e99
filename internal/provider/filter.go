package provider

import (
	"sort"
	"strings"

	"StockScreener/internal/model"
)

// excludeTokens marks listings that are not ordinary tradable stocks:
// indices, fund wrappers, bonds, ST/delisting flags, suspended and
// preferred shares. Matched case-insensitively against the display name.
var excludeTokens = []string{
	"指数", "INDEX",
	"ETF", "LOF", "FOF",
	"债", "BOND",
	"ST",
	"退市", "退", "DELISTED",
	"停牌", "暂停", "SUSPENDED",
	"优先", "PREFERRED",
}

// FilterUniverse reduces a raw listing to the tradable universe: keeps only
// the four recognized code classes, drops excluded names, de-duplicates by
// code and sorts ascending. The market field is re-derived from the code.
func FilterUniverse(raw []model.Instrument) []model.Instrument {
	seen := make(map[string]bool, len(raw))
	out := make([]model.Instrument, 0, len(raw))
	for _, inst := range raw {
		market := model.MarketForCode(inst.Code)
		if market < 0 {
			continue
		}
		if excludedName(inst.Name) {
			continue
		}
		if seen[inst.Code] {
			continue
		}
		seen[inst.Code] = true
		inst.Market = market
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func excludedName(name string) bool {
	upper := strings.ToUpper(name)
	for _, tok := range excludeTokens {
		if strings.Contains(upper, tok) {
			return true
		}
	}
	return false
}
