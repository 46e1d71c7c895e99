package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StockScreener/internal/fetcher"
	"StockScreener/internal/indicator"
	"StockScreener/internal/notifier"
	"StockScreener/internal/store"
	"StockScreener/internal/strategy"
)

// Pipeline runs the download→select→report chain on a cron schedule.
// One run is the same code path the CLI select command uses.
type Pipeline struct {
	Engine    *fetcher.Engine
	Params    indicator.Params
	OutputDir string
	Notifier  *notifier.Telegram // nil disables notifications
	Journal   store.Journal
	Opts      fetcher.Options

	cron *cron.Cron
	ctx  context.Context
}

// New creates a pipeline scheduler.
func New(ctx context.Context, engine *fetcher.Engine, params indicator.Params, outputDir string, tn *notifier.Telegram, journal store.Journal, opts fetcher.Options) *Pipeline {
	return &Pipeline{
		Engine:    engine,
		Params:    params,
		OutputDir: outputDir,
		Notifier:  tn,
		Journal:   journal,
		Opts:      opts,
		cron:      cron.New(cron.WithSeconds()),
		ctx:       ctx,
	}
}

// Register schedules the pipeline on the given cron spec.
func (p *Pipeline) Register(spec string) error {
	if _, err := p.cron.AddFunc(spec, p.RunNow); err != nil {
		return fmt.Errorf("register select task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (p *Pipeline) Start() {
	p.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (p *Pipeline) Stop() {
	p.cron.Stop()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes one full pipeline run immediately.
func (p *Pipeline) RunNow() {
	log.Info().Msg("running scheduled selection pipeline")

	snap, err := p.Engine.Download(p.Opts)
	if err != nil {
		log.Error().Err(err).Msg("scheduled download failed")
		p.trySend(notifier.FormatRunFailure("数据下载", err))
		return
	}

	result := strategy.Select(snap, p.Params)
	if len(result.Picks) > 0 {
		path, err := strategy.WriteBLK(result, p.OutputDir)
		if err != nil {
			log.Error().Err(err).Msg("write selection artifact failed")
		} else {
			result.ArtifactPath = path
		}
	}

	if p.Journal != nil {
		if err := p.Journal.RecordSelection(&store.SelectionRun{
			RunID:     store.NewRunID(),
			Date:      result.Date,
			Strategy:  result.Strategy,
			Evaluated: result.Evaluated,
			Picked:    len(result.Picks),
			Artifact:  result.ArtifactPath,
		}); err != nil {
			log.Error().Err(err).Msg("journal selection failed")
		}
	}

	p.trySend(notifier.FormatSelectionReport(result))
}

func (p *Pipeline) trySend(text string) {
	if p.Notifier == nil {
		return
	}
	if err := p.Notifier.SendWithRetry(p.ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification failed")
	}
}
