package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/run"
	"curator/internal/storage/sqlite"
	"curator/internal/summarize"
)

type cliFlags struct {
	sources     string
	minInterval int
	maxInterval int
	dryRun      bool
	dbPath      string
	catalogPath string
}

func main() {
	var flags cliFlags
	flag.StringVar(&flags.sources, "sources", "all", "comma-separated source ids to poll, or 'all'")
	flag.IntVar(&flags.minInterval, "min-interval", 0, "only poll sources with poll interval >= this many seconds")
	flag.IntVar(&flags.maxInterval, "max-interval", 0, "only poll sources with poll interval <= this many seconds")
	flag.BoolVar(&flags.dryRun, "dry-run", false, "run fetch and classification without summarizing or writing cards")
	flag.StringVar(&flags.dbPath, "db", "", "sqlite database path (overrides DATABASE_PATH)")
	flag.StringVar(&flags.catalogPath, "catalog", "", "source catalog TOML path (overrides CATALOG_PATH)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := realMain(ctx, flags); err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func realMain(ctx context.Context, flags cliFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.dbPath != "" {
		cfg.DatabasePath = flags.dbPath
	}
	if flags.catalogPath != "" {
		cfg.CatalogPath = flags.catalogPath
	}
	dryRun := cfg.DryRun || flags.dryRun

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load source catalog: %w", err)
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	summarizer, err := buildSummarizer(cfg, dryRun, logger)
	if err != nil {
		return err
	}

	orchestrator := run.New(cfg, cat, store, summarizer, logger)
	return orchestrator.Execute(ctx, run.Options{
		Sources:      parseSources(flags.sources),
		MinIntervalS: flags.minInterval,
		MaxIntervalS: flags.maxInterval,
		DryRun:       dryRun,
	})
}

// buildSummarizer wires the completion backend for the environment. In
// dry-run mode no completion call is ever made, but the pipeline still
// needs a summarizer value to construct.
func buildSummarizer(cfg *config.Config, dryRun bool, logger *slog.Logger) (*summarize.Summarizer, error) {
	backend, err := summarize.NewBackend(cfg)
	if err != nil {
		if dryRun {
			logger.Warn("no completion backend available, continuing in dry-run", "error", err)
			return summarize.New(summarize.Unavailable(), nil, logger), nil
		}
		return nil, fmt.Errorf("failed to create completion backend: %w", err)
	}

	var gate summarize.Gate
	if backend.Metered() {
		gate = summarize.NewMinIntervalGate(summarize.MinCallInterval)
	}
	return summarize.New(backend, gate, logger), nil
}

func parseSources(value string) []string {
	if value == "" || value == "all" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
