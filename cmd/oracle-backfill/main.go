package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
	"github.com/MikeSquared-Agency/oracle/internal/backfill"
	"github.com/MikeSquared-Agency/oracle/internal/config"
	"github.com/MikeSquared-Agency/oracle/internal/extractor"
	"github.com/MikeSquared-Agency/oracle/internal/ingest"
	"github.com/MikeSquared-Agency/oracle/internal/segment"
	"github.com/MikeSquared-Agency/oracle/internal/store"
)

func main() {
	var (
		dir        = flag.String("dir", "", "directory of transcript/chat files to ingest")
		singleFile = flag.String("file", "", "process a single file only")
		since      = flag.String("since", "", "skip sources before this date (YYYY-MM-DD)")
		until      = flag.String("until", "", "skip sources after this date (YYYY-MM-DD)")
		sourceType = flag.String("source-type", "meeting", "source type label for ingested files")
		statePath  = flag.String("state", "", "override the state file path")
		dryRun     = flag.Bool("dry-run", false, "parse and segment without writing")
		noExtract  = flag.Bool("no-extract", false, "skip LLM entity extraction")
	)
	flag.Parse()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if *dir == "" && *singleFile == "" {
		slog.Error("either -dir or -file is required")
		os.Exit(1)
	}

	segCfg := segment.Config{
		MinChars: cfg.SegmentMinChars,
		MaxChars: cfg.SegmentMaxChars,
		TimeGap:  cfg.SegmentTimeGap,
		Weights: segment.Weights{
			Marker:  cfg.WeightMarker,
			Density: cfg.WeightDensity,
			Length:  cfg.WeightLength,
		},
	}

	bfCfg := backfill.Config{
		Dir:        *dir,
		SingleFile: *singleFile,
		DryRun:     *dryRun,
		SourceType: *sourceType,
		StatePath:  *statePath,
		Segment:    segCfg,
	}
	var err error
	if *since != "" {
		if bfCfg.Since, err = time.Parse("2006-01-02", *since); err != nil {
			slog.Error("invalid -since", "error", err)
			os.Exit(1)
		}
	}
	if *until != "" {
		if bfCfg.Until, err = time.Parse("2006-01-02", *until); err != nil {
			slog.Error("invalid -until", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("interrupted — saving state")
		cancel()
	}()

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	var ext *extractor.Extractor
	if !*noExtract {
		if cfg.AnthropicAPIKey == "" {
			slog.Error("ANTHROPIC_API_KEY is required (or pass -no-extract)")
			os.Exit(1)
		}
		llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		ext = extractor.New(llm, slog.Default())
	}

	// No NATS in backfill runs: events are for live ingestion.
	proc := ingest.New(db, ext, nil, segCfg, slog.Default())

	runner := backfill.NewRunner(bfCfg, proc, slog.Default())
	if err := runner.Run(ctx); err != nil {
		slog.Error("backfill failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
