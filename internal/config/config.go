package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Environment names accepted in PIPELINE_ENV.
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	defaultBatchSize      = 200
	defaultDBPath         = "./curator.db"
	devConcurrency        = 1
	prodConcurrency       = 8
)

// Config is the environment-sourced runtime configuration. The source
// catalog itself is a separate TOML file (CATALOG_PATH) because it is
// deploy-time data, not per-run tuning.
type Config struct {
	Env          string
	DatabasePath string
	CatalogPath  string
	BatchSize    int
	Concurrency  int
	DryRun       bool

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	CodeHostToken    string
	AggregatorAPIKey string

	LogLevel slog.Level
}

// Load reads configuration from the environment, applies per-env
// defaults and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Env:              getString("PIPELINE_ENV", EnvDev),
		DatabasePath:     getString("DATABASE_PATH", defaultDBPath),
		CatalogPath:      os.Getenv("CATALOG_PATH"),
		BatchSize:        getInt("BATCH_SIZE", defaultBatchSize),
		DryRun:           getBool("DRY_RUN", false),
		LLMAPIKey:        os.Getenv("LLM_API_KEY"),
		LLMBaseURL:       os.Getenv("LLM_BASE_URL"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		CodeHostToken:    os.Getenv("CODEHOST_TOKEN"),
		AggregatorAPIKey: os.Getenv("AGGREGATOR_API_KEY"),
		LogLevel:         parseLevel(os.Getenv("LOG_LEVEL")),
	}

	switch cfg.Env {
	case EnvDev, EnvStaging:
		cfg.Concurrency = getInt("CONCURRENCY", devConcurrency)
	case EnvProd:
		cfg.Concurrency = getInt("CONCURRENCY", prodConcurrency)
	default:
		return nil, fmt.Errorf("invalid PIPELINE_ENV %q (want dev|staging|prod)", cfg.Env)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("CONCURRENCY must be positive, got %d", c.Concurrency)
	}
	if c.Env == EnvProd && c.LLMAPIKey == "" && !c.DryRun {
		return fmt.Errorf("LLM_API_KEY is required in prod")
	}
	return nil
}

// HostedBackend reports whether completion calls go to the metered
// hosted endpoint instead of a local model.
func (c *Config) HostedBackend() bool {
	return c.Env != EnvDev
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
