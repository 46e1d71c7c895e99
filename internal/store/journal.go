package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// AcquisitionRun is one journalled download run.
type AcquisitionRun struct {
	RunID       string
	Date        string
	TotalStocks int
	Successful  int
	Failed      int
	DurationSec float64
	Historical  bool
}

// SelectionRun is one journalled selection run.
type SelectionRun struct {
	RunID     string
	Date      string
	Strategy  string
	Evaluated int
	Picked    int
	Artifact  string
}

// Journal persists run outcomes for external analysis.
type Journal interface {
	RecordAcquisition(rec *AcquisitionRun) error
	RecordSelection(rec *SelectionRun) error
	Close() error
}

// NewRunID returns a fresh identifier to stamp on a run's journal rows.
func NewRunID() string { return uuid.NewString() }

// SQLiteJournal persists run history to a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteJournal opens (or creates) the database and runs migrations.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc readers don't block journal writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite journal opened")
	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS acquisition_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			date         TEXT,
			total_stocks INTEGER,
			successful   INTEGER,
			failed       INTEGER,
			duration_sec REAL,
			historical   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_acq_ts ON acquisition_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS selection_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			date      TEXT,
			strategy  TEXT,
			evaluated INTEGER,
			picked    INTEGER,
			artifact  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sel_ts ON selection_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := j.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (j *SQLiteJournal) RecordAcquisition(rec *AcquisitionRun) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	historical := 0
	if rec.Historical {
		historical = 1
	}
	_, err := j.db.Exec(`INSERT INTO acquisition_runs
		(run_id, timestamp, date, total_stocks, successful, failed, duration_sec, historical)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.RunID, time.Now().Unix(), rec.Date,
		rec.TotalStocks, rec.Successful, rec.Failed, rec.DurationSec, historical,
	)
	return err
}

func (j *SQLiteJournal) RecordSelection(rec *SelectionRun) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`INSERT INTO selection_runs
		(run_id, timestamp, date, strategy, evaluated, picked, artifact)
		VALUES (?,?,?,?,?,?,?)`,
		rec.RunID, time.Now().Unix(), rec.Date,
		rec.Strategy, rec.Evaluated, rec.Picked, rec.Artifact,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	log.Info().Msg("closing sqlite journal")
	return j.db.Close()
}

// NoopJournal is used when SQLite is not configured.
type NoopJournal struct{}

func NewNoopJournal() *NoopJournal { return &NoopJournal{} }

func (n *NoopJournal) RecordAcquisition(_ *AcquisitionRun) error { return nil }
func (n *NoopJournal) RecordSelection(_ *SelectionRun) error     { return nil }
func (n *NoopJournal) Close() error                              { return nil }
