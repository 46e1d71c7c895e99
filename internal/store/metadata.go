package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// historyCap bounds the rolling run history.
const historyCap = 10

// RunRecord is one entry in the rolling update history.
type RunRecord struct {
	Date        string  `json:"date"`
	TotalStocks int     `json:"total_stocks"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	DurationSec float64 `json:"duration_sec"`
	Historical  bool    `json:"is_historical"`
	TargetDate  string  `json:"target_date"`
}

// Metadata is the process-wide cache state, persisted as one JSON file.
type Metadata struct {
	LastUpdate  string      `json:"last_update"` // YYYYMMDD, empty if never
	StockCount  int         `json:"stock_count"`
	DataVersion string      `json:"data_version"`
	History     []RunRecord `json:"update_history"`
	FailedCodes []string    `json:"failed_stocks"`
}

// LoadMetadata reads the metadata file, falling back to defaults on any
// error so a damaged file never blocks a run.
func LoadMetadata(path string) *Metadata {
	meta := &Metadata{DataVersion: "1.0"}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("metadata read failed, using defaults")
		}
		return meta
	}
	if err := json.Unmarshal(data, meta); err != nil {
		log.Warn().Err(err).Msg("metadata decode failed, using defaults")
		return &Metadata{DataVersion: "1.0"}
	}
	if meta.DataVersion == "" {
		meta.DataVersion = "1.0"
	}
	return meta
}

// Save writes the metadata file. Best-effort: failures are logged upstream.
func (m *Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// RecordRun appends one run outcome, advancing the last-update marker and
// evicting the oldest history entries beyond the cap.
func (m *Metadata) RecordRun(rec RunRecord, failedCodes []string) {
	m.LastUpdate = rec.Date
	m.StockCount = rec.TotalStocks
	m.FailedCodes = failedCodes
	m.History = append(m.History, rec)
	if len(m.History) > historyCap {
		m.History = m.History[len(m.History)-historyCap:]
	}
}

// ShouldUpdate decides whether cached data is stale relative to now.
// Trading days are approximated as weekdays; exchange holidays are not
// considered, so a holiday Monday still reads as "stale".
func (m *Metadata) ShouldUpdate(now time.Time) (bool, string) {
	if m.LastUpdate == "" {
		return true, "no prior update"
	}
	last := m.LastUpdate
	if _, err := time.Parse(DateKey, last); err != nil {
		return true, "unreadable last update date"
	}
	today := now.Format(DateKey)

	if isWeekday(now) {
		if last < today {
			return true, fmt.Sprintf("stale, last update %s", last)
		}
		return false, "already current"
	}

	// Weekend: compare against the most recent weekday, up to 7 days back.
	check := now
	for i := 0; i < 7; i++ {
		check = check.AddDate(0, 0, -1)
		if !isWeekday(check) {
			continue
		}
		if last >= check.Format(DateKey) {
			return false, "already current (non-trading day)"
		}
		return true, fmt.Sprintf("needs update to %s", check.Format(DateKey))
	}
	return false, "undetermined"
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
