package fetcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"StockScreener/internal/model"
	"StockScreener/internal/provider"
	"StockScreener/internal/store"
)

// retryDelay is the fixed pause before the degraded second attempt. The
// gateway recovers quickly, so this is a courtesy gap, not a backoff curve.
const retryDelay = 10 * time.Millisecond

// Options controls one acquisition run.
type Options struct {
	Force         bool      // refetch even when the cache is current
	MaxStocks     int       // 0 = whole universe; otherwise first N after sort
	BatchSize     int       // instruments per batch
	MaxWorkers    int       // concurrent fetch tasks within a batch
	AsOf          time.Time // zero = today; otherwise bars after it are dropped
	BarCount      int       // bars requested on the first attempt
	RetryBarCount int       // reduced count on the degraded retry

	// Instruments, when non-nil, bypasses universe listing entirely.
	Instruments []model.Instrument

	Progress ProgressFunc
	Journal  store.Journal
}

// Progress is reported to the caller after every completed batch.
type Progress struct {
	Batch, Batches int
	Done, Total    int
	Succeeded      int
	Elapsed        time.Duration
	Remaining      time.Duration // extrapolated from elapsed / percent done
}

// ProgressFunc receives batch-level progress. May be nil.
type ProgressFunc func(Progress)

// Engine acquires daily series for an instrument universe in sequential
// batches of bounded-concurrency fetch tasks.
type Engine struct {
	Factory provider.Factory
	Store   *store.Store
}

// New creates an acquisition engine.
func New(factory provider.Factory, st *store.Store) *Engine {
	return &Engine{Factory: factory, Store: st}
}

// Universe returns the filtered tradable universe for the given date key,
// serving the per-day cached listing unless force is set.
func (e *Engine) Universe(date string, force bool) ([]model.Instrument, error) {
	if !force {
		if cached, ok := e.Store.LoadUniverse(date); ok {
			log.Info().Int("count", len(cached)).Msg("loaded cached instrument list")
			return cached, nil
		}
	}
	raw, err := e.Factory().ListInstruments()
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	universe := provider.FilterUniverse(raw)
	log.Info().Int("raw", len(raw)).Int("filtered", len(universe)).Msg("instrument universe refreshed")
	if err := e.Store.SaveUniverse(date, universe); err != nil {
		log.Warn().Err(err).Msg("save instrument list failed")
	}
	return universe, nil
}

// Download runs one full acquisition: universe → batches → snapshot.
// Individual instrument failures never abort the run; a partially filled
// snapshot is a valid outcome and is persisted as such.
func (e *Engine) Download(opts Options) (*model.MarketSnapshot, error) {
	now := time.Now()
	asOf := opts.AsOf
	explicitAsOf := !asOf.IsZero()
	if !explicitAsOf {
		asOf = now
	}
	dateKey := asOf.Format(store.DateKey)
	historical := explicitAsOf && dateKey != now.Format(store.DateKey)

	meta := store.LoadMetadata(e.Store.MetadataPath())
	if !opts.Force && !historical && opts.Instruments == nil {
		if need, reason := meta.ShouldUpdate(now); !need {
			if snap, ok := e.Store.LoadSnapshot(dateKey); ok {
				log.Info().Str("reason", reason).Int("stocks", len(snap.Stocks)).
					Msg("cache is current, using existing snapshot")
				return snap, nil
			}
		} else {
			log.Info().Str("reason", reason).Msg("cache needs update")
		}
	}

	universe := opts.Instruments
	if universe == nil {
		var err error
		universe, err = e.Universe(now.Format(store.DateKey), opts.Force)
		if err != nil {
			return nil, err
		}
	}
	if opts.MaxStocks > 0 && len(universe) > opts.MaxStocks {
		universe = universe[:opts.MaxStocks]
	}
	if len(universe) == 0 {
		return nil, fmt.Errorf("empty instrument universe")
	}

	batches := Partition(universe, opts.BatchSize)
	log.Info().Int("stocks", len(universe)).Int("batches", len(batches)).
		Int("batch_size", opts.BatchSize).Int("workers", opts.MaxWorkers).
		Str("as_of", dateKey).Msg("starting acquisition")

	snap := &model.MarketSnapshot{Date: dateKey, Stocks: make(map[string]model.StockData, len(universe))}
	start := time.Now()
	done := 0

	for i, batch := range batches {
		e.fetchBatch(batch, opts, asOf, explicitAsOf, dateKey, snap)
		done += len(batch)

		elapsed := time.Since(start)
		pct := float64(done) / float64(len(universe))
		remaining := time.Duration(float64(elapsed)/pct) - elapsed
		log.Info().Int("batch", i+1).Int("batches", len(batches)).
			Int("done", done).Int("total", len(universe)).
			Int("ok", len(snap.Stocks)).Int("failed", len(snap.Failed)).
			Dur("elapsed", elapsed).Dur("eta", remaining).Msg("batch complete")
		if opts.Progress != nil {
			opts.Progress(Progress{
				Batch: i + 1, Batches: len(batches),
				Done: done, Total: len(universe), Succeeded: len(snap.Stocks),
				Elapsed: elapsed, Remaining: remaining,
			})
		}
	}

	duration := time.Since(start)

	if err := e.Store.SaveSnapshot(snap); err != nil {
		log.Error().Err(err).Msg("save snapshot failed")
	}

	meta.RecordRun(store.RunRecord{
		Date:        dateKey,
		TotalStocks: len(universe),
		Successful:  len(snap.Stocks),
		Failed:      len(snap.Failed),
		DurationSec: duration.Seconds(),
		Historical:  historical,
		TargetDate:  dateKey,
	}, snap.Failed)
	if err := meta.Save(e.Store.MetadataPath()); err != nil {
		log.Error().Err(err).Msg("save metadata failed")
	}

	if opts.Journal != nil {
		if err := opts.Journal.RecordAcquisition(&store.AcquisitionRun{
			RunID:       store.NewRunID(),
			Date:        dateKey,
			TotalStocks: len(universe),
			Successful:  len(snap.Stocks),
			Failed:      len(snap.Failed),
			DurationSec: duration.Seconds(),
			Historical:  historical,
		}); err != nil {
			log.Error().Err(err).Msg("journal acquisition failed")
		}
	}

	log.Info().Int("ok", len(snap.Stocks)).Int("failed", len(snap.Failed)).
		Dur("duration", duration).Msg("acquisition finished")
	return snap, nil
}

// fetchBatch fans the batch out over at most MaxWorkers concurrent tasks.
// The snapshot is the only shared state; the mutex guards exactly the merge.
func (e *Engine) fetchBatch(batch []model.Instrument, opts Options, asOf time.Time, explicitAsOf bool, dateKey string, snap *model.MarketSnapshot) {
	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	jobs := make(chan model.Instrument)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				data, err := e.fetchOne(inst, opts, asOf, explicitAsOf, dateKey)
				mu.Lock()
				if err != nil {
					snap.Failed = append(snap.Failed, inst.Code)
				} else {
					snap.Stocks[inst.Code] = data
				}
				mu.Unlock()
				if err != nil {
					log.Debug().Str("code", inst.Code).Err(err).Msg("fetch failed")
				}
			}
		}()
	}
	for _, inst := range batch {
		jobs <- inst
	}
	close(jobs)
	wg.Wait()
}

// fetchOne attempts the series fetch with bounded retry: a full-count
// attempt, then one degraded attempt with a reduced count. Each task owns
// its own provider instance.
func (e *Engine) fetchOne(inst model.Instrument, opts Options, asOf time.Time, explicitAsOf bool, dateKey string) (model.StockData, error) {
	prov := e.Factory()

	counts := []int{opts.BarCount, opts.RetryBarCount}
	var lastErr error
	for attempt, count := range counts {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		bars, err := prov.GetDailyBars(inst.Code, inst.Market, count)
		if err != nil {
			lastErr = err
			continue
		}
		if explicitAsOf {
			bars = model.TrimAfter(bars, asOf)
		}
		if len(bars) == 0 || bars[len(bars)-1].Close <= 0 {
			lastErr = fmt.Errorf("%w: %s: no bars at or before %s", provider.ErrNoData, inst.Code, dateKey)
			continue
		}
		return model.StockData{
			Bars: bars,
			Info: model.StockInfo{
				Code:       inst.Code,
				Name:       inst.Name,
				Market:     inst.Market,
				UpdateTime: time.Now(),
				BarCount:   len(bars),
				TargetDate: dateKey,
			},
		}, nil
	}
	return model.StockData{}, lastErr
}

// Partition splits the universe into consecutive batches of the given size;
// the last batch may be shorter. Order is preserved.
func Partition(universe []model.Instrument, size int) [][]model.Instrument {
	if size <= 0 {
		size = len(universe)
		if size == 0 {
			return nil
		}
	}
	var batches [][]model.Instrument
	for start := 0; start < len(universe); start += size {
		end := start + size
		if end > len(universe) {
			end = len(universe)
		}
		batches = append(batches, universe[start:end])
	}
	return batches
}
