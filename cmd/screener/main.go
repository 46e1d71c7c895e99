package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StockScreener/internal/config"
	"StockScreener/internal/fetcher"
	"StockScreener/internal/indicator"
	"StockScreener/internal/model"
	"StockScreener/internal/notifier"
	"StockScreener/internal/provider"
	"StockScreener/internal/scheduler"
	"StockScreener/internal/store"
	"StockScreener/internal/strategy"
)

const version = "v1.2.0"

var (
	flagConfig  string
	flagDataDir string
	flagVerbose bool

	flagForce      bool
	flagMaxStocks  int
	flagBatchSize  int
	flagWorkers    int
	flagDate       string
	flagStocks     []string
	flagUseLocal   bool
	flagM1, flagM2 int
	flagM3, flagM4 int
	flagKeepDays   int
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "screener",
		Short:   "A-share B1 daily screener",
		Long:    "Downloads daily bars for the A-share universe, derives KDJ/trend indicators and emits a B1 pick list importable by the trading terminal.",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if flagVerbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "configs/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download daily bars for the whole universe",
		RunE:  runDownload,
	}
	addDownloadFlags(downloadCmd)

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Run the B1 selection (refreshes data first unless --use-local)",
		RunE:  runSelect,
	}
	addDownloadFlags(selectCmd)
	selectCmd.Flags().BoolVar(&flagUseLocal, "use-local", false, "select from the cached snapshot only")
	selectCmd.Flags().StringSliceVar(&flagStocks, "stocks", nil, "restrict to specific codes")
	selectCmd.Flags().IntVar(&flagM1, "m1", 0, "multi-trend period M1")
	selectCmd.Flags().IntVar(&flagM2, "m2", 0, "multi-trend period M2")
	selectCmd.Flags().IntVar(&flagM3, "m3", 0, "multi-trend period M3")
	selectCmd.Flags().IntVar(&flagM4, "m4", 0, "multi-trend period M4")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached snapshot artifacts",
		RunE:  runList,
	}
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics and recent runs",
		RunE:  runStats,
	}
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached artifacts older than the keep window",
		RunE:  runPrune,
	}
	pruneCmd.Flags().IntVar(&flagKeepDays, "keep-days", 7, "days of artifacts to keep")

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduled selection pipeline",
		RunE:  runDaemon,
	}
	addDownloadFlags(daemonCmd)

	rootCmd.AddCommand(downloadCmd, selectCmd, listCmd, statsCmd, pruneCmd, daemonCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagForce, "force", false, "refetch even if the cache is current")
	cmd.Flags().IntVar(&flagMaxStocks, "max-stocks", 0, "cap the universe (0 = all)")
	cmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "instruments per batch")
	cmd.Flags().IntVar(&flagWorkers, "max-workers", 0, "concurrent fetch tasks per batch")
	cmd.Flags().StringVar(&flagDate, "date", "", "as-of date YYYY-MM-DD (default today)")
}

// app bundles everything a command needs, built from config + flags.
type app struct {
	cfg     *config.Config
	store   *store.Store
	engine  *fetcher.Engine
	journal store.Journal
	params  indicator.Params
}

func setup() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagBatchSize > 0 {
		cfg.Download.BatchSize = flagBatchSize
	}
	if flagWorkers > 0 {
		cfg.Download.MaxWorkers = flagWorkers
	}
	if flagM1 > 0 {
		cfg.Strategy.M1 = flagM1
	}
	if flagM2 > 0 {
		cfg.Strategy.M2 = flagM2
	}
	if flagM3 > 0 {
		cfg.Strategy.M3 = flagM3
	}
	if flagM4 > 0 {
		cfg.Strategy.M4 = flagM4
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	st, err := store.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	factory := func() provider.Provider {
		return provider.NewTDXClient(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateRPS)
	}

	var journal store.Journal = store.NewNoopJournal()
	if cfg.Database.SQLitePath != "" {
		if sj, err := store.NewSQLiteJournal(cfg.Database.SQLitePath); err != nil {
			log.Warn().Err(err).Msg("sqlite journal unavailable, using noop")
		} else {
			journal = sj
		}
	}

	return &app{
		cfg:     cfg,
		store:   st,
		engine:  fetcher.New(factory, st),
		journal: journal,
		params:  indicator.Params{M1: cfg.Strategy.M1, M2: cfg.Strategy.M2, M3: cfg.Strategy.M3, M4: cfg.Strategy.M4},
	}, nil
}

func (a *app) downloadOptions() (fetcher.Options, error) {
	opts := fetcher.Options{
		Force:         flagForce,
		MaxStocks:     flagMaxStocks,
		BatchSize:     a.cfg.Download.BatchSize,
		MaxWorkers:    a.cfg.Download.MaxWorkers,
		BarCount:      a.cfg.Download.BarCount,
		RetryBarCount: a.cfg.Download.RetryBarCount,
		Journal:       a.journal,
	}
	if flagDate != "" {
		asOf, err := time.Parse("2006-01-02", flagDate)
		if err != nil {
			return opts, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", flagDate)
		}
		opts.AsOf = asOf
	}
	return opts, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.journal.Close()

	opts, err := a.downloadOptions()
	if err != nil {
		return err
	}
	snap, err := a.engine.Download(opts)
	if err != nil {
		return err
	}

	fmt.Printf("snapshot %s: %d ok, %d failed\n", snap.Date, len(snap.Stocks), len(snap.Failed))
	if len(snap.Failed) > 0 {
		limit := len(snap.Failed)
		if limit > 10 {
			limit = 10
		}
		fmt.Printf("failed codes (first %d): %v\n", limit, snap.Failed[:limit])
	}
	return nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.journal.Close()

	opts, err := a.downloadOptions()
	if err != nil {
		return err
	}
	// Required history for the longest moving average, with headroom.
	if min := a.params.MinHistory(); opts.BarCount < min {
		opts.BarCount = min
	}
	if len(flagStocks) > 0 {
		instruments := make([]model.Instrument, 0, len(flagStocks))
		for _, code := range flagStocks {
			market := model.MarketForCode(code)
			if market < 0 {
				return fmt.Errorf("unrecognized stock code %q", code)
			}
			instruments = append(instruments, model.Instrument{Code: code, Name: code, Market: market})
		}
		opts.Instruments = instruments
	}

	var snap *model.MarketSnapshot
	if flagUseLocal {
		date := time.Now().Format(store.DateKey)
		if !opts.AsOf.IsZero() {
			date = opts.AsOf.Format(store.DateKey)
		}
		cached, ok := a.store.LoadSnapshot(date)
		if !ok {
			return fmt.Errorf("no cached snapshot for %s; run download first or drop --use-local", date)
		}
		snap = cached
	} else {
		snap, err = a.engine.Download(opts)
		if err != nil {
			return err
		}
	}

	result := strategy.Select(snap, a.params)
	if len(result.Picks) > 0 {
		path, err := strategy.WriteBLK(result, a.cfg.OutputDir)
		if err != nil {
			log.Error().Err(err).Msg("write selection artifact failed")
		} else {
			result.ArtifactPath = path
		}
	}

	if err := a.journal.RecordSelection(&store.SelectionRun{
		RunID:     store.NewRunID(),
		Date:      result.Date,
		Strategy:  result.Strategy,
		Evaluated: result.Evaluated,
		Picked:    len(result.Picks),
		Artifact:  result.ArtifactPath,
	}); err != nil {
		log.Error().Err(err).Msg("journal selection failed")
	}

	fmt.Printf("%s %s: %d evaluated, %d picked\n", result.Strategy, result.Date, result.Evaluated, len(result.Picks))
	for _, p := range result.Picks {
		fmt.Printf("  %s %-10s close %8.2f  chg %+6.2f%%  J %6.2f  range %5.2f%%\n",
			p.Code, p.Name, p.Close, p.ChangePct, p.J, p.RangePct)
	}
	if result.ArtifactPath != "" {
		fmt.Printf("pick list written to %s\n", result.ArtifactPath)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	artifacts, err := a.store.ListSnapshots()
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Println("no cached snapshots")
		return nil
	}
	for _, art := range artifacts {
		fmt.Printf("%s  %-32s %8s\n", art.Date, art.Name, humanize.Bytes(uint64(art.Size)))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	meta := store.LoadMetadata(a.store.MetadataPath())
	st, err := a.store.Statistics()
	if err != nil {
		return err
	}

	fmt.Printf("data dir:     %s\n", a.store.DataDir)
	lastUpdate := meta.LastUpdate
	if lastUpdate == "" {
		lastUpdate = "never"
	}
	fmt.Printf("last update:  %s\n", lastUpdate)
	fmt.Printf("stock count:  %d\n", meta.StockCount)
	fmt.Printf("cache files:  %d (%s)\n", st.Files, humanize.Bytes(uint64(st.TotalSize)))

	if len(meta.History) > 0 {
		fmt.Println("recent runs:")
		for _, rec := range meta.History {
			tag := ""
			if rec.Historical {
				tag = "  (historical)"
			}
			fmt.Printf("  %s  %d/%d ok  %.1fs%s\n",
				rec.Date, rec.Successful, rec.TotalStocks, rec.DurationSec, tag)
		}
	}
	return nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	cutoff := time.Now().AddDate(0, 0, -flagKeepDays).Format(store.DateKey)
	removed, reclaimed, err := a.store.Prune(cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d artifacts older than %s, reclaimed %s\n",
		removed, cutoff, humanize.Bytes(uint64(reclaimed)))
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.journal.Close()

	opts, err := a.downloadOptions()
	if err != nil {
		return err
	}
	if min := a.params.MinHistory(); opts.BarCount < min {
		opts.BarCount = min
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tn := notifier.NewTelegram(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
	if tn == nil {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	pipe := scheduler.New(ctx, a.engine, a.params, a.cfg.OutputDir, tn, a.journal, opts)
	if err := pipe.Register(a.cfg.Schedule.SelectCron); err != nil {
		return err
	}
	pipe.Start()
	defer pipe.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing pipeline now")
		go pipe.RunNow()
	}

	log.Info().Str("cron", a.cfg.Schedule.SelectCron).Msg("daemon running, Ctrl+C to stop")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	return nil
}
