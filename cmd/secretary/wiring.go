package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alfredjeanlab/secretary/internal/config"
	"github.com/alfredjeanlab/secretary/internal/store"
	"github.com/alfredjeanlab/secretary/internal/store/memory"
	"github.com/alfredjeanlab/secretary/internal/store/postgres"
	"github.com/alfredjeanlab/secretary/internal/store/redis"
	secsync "github.com/alfredjeanlab/secretary/internal/sync"
)

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore picks the identity backend: PostgreSQL when a database URL is
// set, then Redis, then process memory.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.IdentityStore, error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("identity store: postgres")
		return s, nil
	case cfg.RedisAddr != "":
		s, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		logger.Info("identity store: redis", "addr", cfg.RedisAddr)
		return s, nil
	default:
		logger.Info("identity store: memory (profiles are lost on restart)")
		return memory.New(), nil
	}
}

// buildDestinations returns the configured export destinations. A failing
// S3 setup is reported; callers decide whether that is fatal.
func buildDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]secsync.Destination, error) {
	var dests []secsync.Destination
	if cfg.SyncFile != "" {
		dests = append(dests, secsync.NewFileDestination(cfg.SyncFile))
		logger.Info("sync file destination enabled", "path", cfg.SyncFile)
	}
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := secsync.NewS3DestinationWithOptions(ctx, secsync.S3Options{
			Bucket:   cfg.SyncS3Bucket,
			Key:      cfg.SyncS3Key,
			Region:   cfg.SyncS3Region,
			Endpoint: cfg.SyncS3Endpoint,
			Daily:    cfg.SyncS3Daily,
		})
		if err != nil {
			return dests, fmt.Errorf("creating S3 sync destination: %w", err)
		}
		dests = append(dests, s3Dest)
		logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key, "daily", cfg.SyncS3Daily)
	}
	return dests, nil
}
