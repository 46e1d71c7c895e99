package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"StockScreener/internal/model"
)

// DateKey is the artifact date format (YYYYMMDD).
const DateKey = "20060102"

const (
	snapshotPrefix = "market_data_"
	universePrefix = "stock_list_"
)

// Store owns the on-disk artifact layout: dated market snapshots, dated
// universe listings and the metadata file. All reads and writes are
// whole-file; writes are best-effort and the caller decides what is fatal.
type Store struct {
	DataDir string
}

// NewStore creates the data directory if needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{DataDir: dataDir}, nil
}

// MetadataPath returns the metadata file location.
func (s *Store) MetadataPath() string {
	return filepath.Join(s.DataDir, "metadata.json")
}

func (s *Store) snapshotPath(date string) string {
	return filepath.Join(s.DataDir, snapshotPrefix+date+".json")
}

func (s *Store) universePath(date string) string {
	return filepath.Join(s.DataDir, universePrefix+date+".json")
}

// SaveSnapshot persists one acquisition run's full result under its date key.
func (s *Store) SaveSnapshot(snap *model.MarketSnapshot) error {
	return writeJSON(s.snapshotPath(snap.Date), snap)
}

// LoadSnapshot returns the cached snapshot for the exact date key, or false
// if absent or unreadable.
func (s *Store) LoadSnapshot(date string) (*model.MarketSnapshot, bool) {
	var snap model.MarketSnapshot
	if !readJSON(s.snapshotPath(date), &snap) {
		return nil, false
	}
	return &snap, true
}

// SaveUniverse persists the day's filtered instrument list.
func (s *Store) SaveUniverse(date string, instruments []model.Instrument) error {
	return writeJSON(s.universePath(date), instruments)
}

// LoadUniverse returns the cached instrument list for the date key.
func (s *Store) LoadUniverse(date string) ([]model.Instrument, bool) {
	var instruments []model.Instrument
	if !readJSON(s.universePath(date), &instruments) {
		return nil, false
	}
	return instruments, true
}

// Artifact describes one dated cache file.
type Artifact struct {
	Date string
	Name string
	Size int64
}

// ListSnapshots enumerates cached market snapshots, newest first.
func (s *Store) ListSnapshots() ([]Artifact, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var out []Artifact
	for _, e := range entries {
		date, ok := artifactDate(e.Name(), snapshotPrefix)
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Artifact{Date: date, Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Prune deletes snapshot and universe artifacts whose date key is strictly
// older than cutoff (YYYYMMDD). Artifacts dated exactly at the cutoff are
// kept. Returns the number of files removed and the bytes reclaimed.
func (s *Store) Prune(cutoff string) (int, int64, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		return 0, 0, fmt.Errorf("read data dir: %w", err)
	}
	removed := 0
	var reclaimed int64
	for _, e := range entries {
		date, ok := artifactDate(e.Name(), snapshotPrefix)
		if !ok {
			date, ok = artifactDate(e.Name(), universePrefix)
		}
		if !ok || date >= cutoff {
			continue
		}
		path := filepath.Join(s.DataDir, e.Name())
		info, err := e.Info()
		if err == nil {
			reclaimed += info.Size()
		}
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("prune: remove failed")
			continue
		}
		removed++
		log.Debug().Str("file", e.Name()).Msg("pruned")
	}
	return removed, reclaimed, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Files     int
	TotalSize int64
}

// Statistics counts cached artifact files and their total size.
func (s *Store) Statistics() (Stats, error) {
	var st Stats
	err := filepath.WalkDir(s.DataDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		st.Files++
		st.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("walk data dir: %w", err)
	}
	return st, nil
}

// artifactDate extracts the YYYYMMDD key from "<prefix>YYYYMMDD.json".
func artifactDate(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	date := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
	if len(date) != 8 {
		return "", false
	}
	for _, c := range date {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return date, true
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("cache decode failed")
		return false
	}
	return true
}
