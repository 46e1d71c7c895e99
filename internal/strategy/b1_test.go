package strategy

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"StockScreener/internal/indicator"
	"StockScreener/internal/model"
	"StockScreener/internal/provider"
)

func passingRow() model.FeatureRow {
	r := model.FeatureRow{
		J:          10,
		ChangePct:  0.5,
		RangePct:   3,
		ShortTrend: 105,
		MultiTrend: 100,
	}
	r.Close = 102
	return r
}

func TestB1_PassingScenario(t *testing.T) {
	if !B1.Passes(passingRow()) {
		t.Fatal("expected the reference scenario to pass")
	}
}

func TestB1_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.FeatureRow)
		want   bool
	}{
		{"J at limit", func(r *model.FeatureRow) { r.J = 13 }, true},
		{"J above limit", func(r *model.FeatureRow) { r.J = 13.01 }, false},
		{"change at lower bound", func(r *model.FeatureRow) { r.ChangePct = -2 }, true},
		{"change below lower bound", func(r *model.FeatureRow) { r.ChangePct = -2.01 }, false},
		{"change at upper bound", func(r *model.FeatureRow) { r.ChangePct = 1.8 }, true},
		{"change above upper bound", func(r *model.FeatureRow) { r.ChangePct = 1.9 }, false},
		{"range at limit", func(r *model.FeatureRow) { r.RangePct = 7 }, true},
		{"range above limit", func(r *model.FeatureRow) { r.RangePct = 7.5 }, false},
		{"short trend below multi", func(r *model.FeatureRow) { r.ShortTrend = 99 }, false},
		{"close below multi", func(r *model.FeatureRow) { r.Close = 99 }, false},
		{"undefined J disqualifies", func(r *model.FeatureRow) { r.J = math.NaN() }, false},
		{"undefined trend disqualifies", func(r *model.FeatureRow) { r.MultiTrend = math.NaN() }, false},
	}
	for _, tt := range tests {
		r := passingRow()
		tt.mutate(&r)
		if got := B1.Passes(r); got != tt.want {
			t.Errorf("%s: Passes = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMarketCode(t *testing.T) {
	tests := []struct {
		code string
		want string
		ok   bool
	}{
		{"600036", "1600036", true},
		{"688001", "1688001", true},
		{"000001", "0000001", true},
		{"002594", "0002594", true},
		{"300750", "0300750", true},
		{"399001", "", false},
		{"BTCUSD", "", false},
	}
	for _, tt := range tests {
		got, ok := MarketCode(tt.code)
		if ok != tt.ok || got != tt.want {
			t.Errorf("MarketCode(%s) = (%q, %v), want (%q, %v)", tt.code, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSelect_ShortHistoryRejected(t *testing.T) {
	// 50 bars cannot define the 114-period multi-trend; selection must skip it.
	snap := &model.MarketSnapshot{
		Date: "20240312",
		Stocks: map[string]model.StockData{
			"600036": {
				Bars: provider.GenerateBars(40, 50),
				Info: model.StockInfo{Code: "600036", Name: "招商银行"},
			},
		},
	}
	result := Select(snap, indicator.DefaultParams())
	if result.Evaluated != 1 {
		t.Errorf("evaluated = %d, want 1", result.Evaluated)
	}
	if len(result.Picks) != 0 {
		t.Errorf("picks = %d, want 0 for insufficient history", len(result.Picks))
	}
}

func TestSelect_OrderedByCode(t *testing.T) {
	snap := &model.MarketSnapshot{
		Date:   "20240312",
		Stocks: map[string]model.StockData{},
	}
	for _, code := range []string{"600036", "000001", "300750"} {
		snap.Stocks[code] = model.StockData{
			Bars: provider.GenerateBars(20, 160),
			Info: model.StockInfo{Code: code, Name: code},
		}
	}
	result := Select(snap, indicator.DefaultParams())
	if result.Evaluated != 3 {
		t.Fatalf("evaluated = %d, want 3", result.Evaluated)
	}
	for i := 1; i < len(result.Picks); i++ {
		if result.Picks[i-1].Code >= result.Picks[i].Code {
			t.Fatalf("picks not sorted: %v", result.Picks)
		}
	}
}

func TestWriteBLK(t *testing.T) {
	dir := t.TempDir()
	result := &model.SelectionResult{
		Strategy: Tag,
		Date:     "20240312",
		Picks: []model.Pick{
			{Code: "000001"},
			{Code: "600036"},
			{Code: "999999"}, // unencodable, dropped from the file
		},
	}
	path, err := WriteBLK(result, dir)
	if err != nil {
		t.Fatalf("WriteBLK: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "B1_20240312_") {
		t.Errorf("unexpected artifact name: %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"0000001", "1600036"}
	if len(lines) != len(want) {
		t.Fatalf("artifact lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteBLK_EmptyPicks(t *testing.T) {
	result := &model.SelectionResult{Strategy: Tag, Date: "20240312"}
	if _, err := WriteBLK(result, t.TempDir()); err == nil {
		t.Fatal("expected error for empty pick list")
	}
}
