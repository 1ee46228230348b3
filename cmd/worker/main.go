package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"

	"attendance/internal/config"
	"attendance/internal/database"
	"attendance/internal/log"
	"attendance/internal/queue"
	"attendance/internal/service"
	"attendance/internal/storage"
	"attendance/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging).With().Str("app", "worker").Logger()
	clock := quartz.NewReal()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := queue.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	if client == nil {
		logger.Fatal().Msg("redis.addr is required for the worker")
	}
	defer client.Close()

	store, closeStore, err := database.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer closeStore()

	services := service.NewServices(store, clock, cfg, logger)

	var backups tasks.BackupRunner
	if cfg.ObjectStore.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.ObjectStore)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		backups = service.NewBackupService(store, objectStore, clock, logger.With().Str("component", "backup").Logger())
	}

	processor := tasks.NewProcessor(
		services.Reports,
		services.Sessions,
		backups,
		clock,
		cfg.Attendance.Location(),
		logger.With().Str("component", "tasks").Logger(),
	)
	consumer := queue.NewConsumer(
		client,
		cfg.Jobs.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		clock,
		logger,
		processor,
	)

	logger.Info().Str("stream", cfg.Jobs.Stream).Str("group", cfg.Worker.Group).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		return
	}
	logger.Info().Msg("worker exited cleanly")
}
