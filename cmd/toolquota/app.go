package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goodtune/toolquota/internal/config"
	"github.com/goodtune/toolquota/internal/metrics"
	"github.com/goodtune/toolquota/internal/storage"
	"github.com/goodtune/toolquota/internal/storage/bolt"
	"github.com/goodtune/toolquota/internal/storage/cache"
	"github.com/goodtune/toolquota/internal/storage/memory"
	"github.com/goodtune/toolquota/internal/storage/redis"
	"github.com/goodtune/toolquota/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app holds what every subcommand needs: configuration, a logger and an open store.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  storage.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	store, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger.Debug().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Int("cache_size", cfg.Storage.CacheSize).
		Msg("Storage initialized")

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

// Close releases the store and exports metrics if configured.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}

	if a.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Warn().Err(err).Str("path", a.cfg.Metrics.Textfile).Msg("Failed to export metrics")
		}
	}
}

func (a *app) context() context.Context {
	return a.logger.WithContext(context.Background())
}

func openStorage(cfg config.StorageConfig, logger zerolog.Logger) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)

	switch cfg.Type {
	case "", "bolt":
		store, err = bolt.Open(cfg.Path)
	case "sqlite":
		store, err = sqlite.Open(cfg.Path)
	case "redis":
		store, err = redis.Open(cfg.Redis)
	case "memory":
		// Nothing survives the process; useful for dry runs.
		return memory.New(cfg.MemoryQuotaBytes), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		cached, err := cache.New(store, cfg.CacheSize, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return cached, nil
	}

	return store, nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.WarnLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Logs go to stderr so command output stays clean
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
