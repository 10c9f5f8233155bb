package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
	"github.com/MikeSquared-Agency/oracle/internal/api"
	"github.com/MikeSquared-Agency/oracle/internal/config"
	"github.com/MikeSquared-Agency/oracle/internal/extractor"
	"github.com/MikeSquared-Agency/oracle/internal/hermes"
	"github.com/MikeSquared-Agency/oracle/internal/ingest"
	"github.com/MikeSquared-Agency/oracle/internal/loop"
	"github.com/MikeSquared-Agency/oracle/internal/segment"
	"github.com/MikeSquared-Agency/oracle/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("oracle starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
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
	slog.Info("database ready")

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	// Extractor
	ext := extractor.New(llm, slog.Default())

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Ingestion pipeline
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
	proc := ingest.New(db, ext, hermesClient, segCfg, slog.Default())

	if err := hermesClient.Subscribe(hermes.SubjectSourceStored, proc.HandleSourceStored); err != nil {
		slog.Error("failed to subscribe to source events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	loopCfg := loop.Config{
		MaxSteps:        cfg.MaxSteps,
		WorkerMaxSteps:  cfg.WorkerMaxSteps,
		InlineThreshold: cfg.InlineThreshold,
		TokenBudget:     cfg.TokenBudget,
		QueryTimeout:    cfg.QueryTimeout,
		CallTimeout:     cfg.CallTimeout,
	}
	srv := api.NewServer(cfg.Port, db, llm, proc, hermesClient, loopCfg, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish("swarm.agent.oracle.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("oracle ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("oracle stopped")
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
