package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockScreener/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st
}

func sampleSnapshot(date string) *model.MarketSnapshot {
	day, _ := time.Parse(DateKey, date)
	return &model.MarketSnapshot{
		Date: date,
		Stocks: map[string]model.StockData{
			"600036": {
				Bars: []model.Bar{{Date: day, Open: 30, High: 31, Low: 29.5, Close: 30.8, Volume: 1200000}},
				Info: model.StockInfo{Code: "600036", Name: "招商银行", Market: model.MarketShanghai, BarCount: 1, TargetDate: date},
			},
		},
		Failed: []string{"000404"},
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	st := newTestStore(t)
	snap := sampleSnapshot("20240312")
	if err := st.SaveSnapshot(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, ok := st.LoadSnapshot("20240312")
	if !ok {
		t.Fatal("snapshot not found after save")
	}
	data, ok := back.Stocks["600036"]
	if !ok {
		t.Fatal("stock missing from reloaded snapshot")
	}
	if data.Info.Name != "招商银行" || data.Bars[0].Close != 30.8 {
		t.Errorf("reloaded stock data mismatch: %+v", data)
	}
	if len(back.Failed) != 1 || back.Failed[0] != "000404" {
		t.Errorf("reloaded failed list: %v", back.Failed)
	}

	if _, ok := st.LoadSnapshot("20240311"); ok {
		t.Error("LoadSnapshot returned data for an absent date")
	}
}

func TestUniverseRoundtrip(t *testing.T) {
	st := newTestStore(t)
	universe := []model.Instrument{
		{Code: "000001", Name: "平安银行", Market: model.MarketShenzhen},
		{Code: "600036", Name: "招商银行", Market: model.MarketShanghai},
	}
	if err := st.SaveUniverse("20240312", universe); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, ok := st.LoadUniverse("20240312")
	if !ok {
		t.Fatal("universe not found after save")
	}
	if len(back) != 2 || back[1].Market != model.MarketShanghai {
		t.Errorf("reloaded universe: %+v", back)
	}
}

func TestListSnapshots_NewestFirst(t *testing.T) {
	st := newTestStore(t)
	for _, date := range []string{"20240311", "20240315", "20240313"} {
		if err := st.SaveSnapshot(sampleSnapshot(date)); err != nil {
			t.Fatal(err)
		}
	}
	// Non-artifact files are ignored.
	if err := os.WriteFile(filepath.Join(st.DataDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	arts, err := st.ListSnapshots()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(arts) != 3 {
		t.Fatalf("%d artifacts, want 3", len(arts))
	}
	want := []string{"20240315", "20240313", "20240311"}
	for i, a := range arts {
		if a.Date != want[i] {
			t.Errorf("artifact %d dated %s, want %s", i, a.Date, want[i])
		}
		if a.Size == 0 {
			t.Errorf("artifact %s reports zero size", a.Name)
		}
	}
}

func TestPrune(t *testing.T) {
	st := newTestStore(t)
	for _, date := range []string{"20240301", "20240305", "20240312"} {
		if err := st.SaveSnapshot(sampleSnapshot(date)); err != nil {
			t.Fatal(err)
		}
		if err := st.SaveUniverse(date, []model.Instrument{{Code: "000001"}}); err != nil {
			t.Fatal(err)
		}
	}
	meta := &Metadata{DataVersion: "1.0", LastUpdate: "20240312"}
	if err := meta.Save(st.MetadataPath()); err != nil {
		t.Fatal(err)
	}

	removed, reclaimed, err := st.Prune("20240305")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	// Only the 20240301 pair is strictly older than the cutoff.
	if removed != 2 {
		t.Errorf("removed %d files, want 2", removed)
	}
	if reclaimed == 0 {
		t.Error("reclaimed zero bytes")
	}
	if _, ok := st.LoadSnapshot("20240301"); ok {
		t.Error("pre-cutoff snapshot survived prune")
	}
	if _, ok := st.LoadSnapshot("20240305"); !ok {
		t.Error("at-cutoff snapshot was deleted")
	}
	if _, ok := st.LoadUniverse("20240312"); !ok {
		t.Error("recent universe listing was deleted")
	}
	if got := LoadMetadata(st.MetadataPath()); got.LastUpdate != "20240312" {
		t.Error("prune touched metadata.json")
	}
}

func TestStatistics(t *testing.T) {
	st := newTestStore(t)
	if err := st.SaveSnapshot(sampleSnapshot("20240312")); err != nil {
		t.Fatal(err)
	}
	meta := &Metadata{DataVersion: "1.0"}
	if err := meta.Save(st.MetadataPath()); err != nil {
		t.Fatal(err)
	}

	stats, err := st.Statistics()
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Files != 2 {
		t.Errorf("files = %d, want 2", stats.Files)
	}
	if stats.TotalSize == 0 {
		t.Error("total size is zero")
	}
}

func TestArtifactDate(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"market_data_20240312.json", "20240312", true},
		{"stock_list_20240312.json", "", false}, // wrong prefix for snapshotPrefix
		{"market_data_2024031.json", "", false},
		{"market_data_2024031x.json", "", false},
		{"market_data_20240312.json.bak", "", false},
	}
	for _, tt := range tests {
		got, ok := artifactDate(tt.name, snapshotPrefix)
		if ok != tt.ok || got != tt.want {
			t.Errorf("artifactDate(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
