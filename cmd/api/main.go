package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/database"
	"attendance/internal/handlers"
	"attendance/internal/jobs"
	"attendance/internal/log"
	"attendance/internal/queue"
	"attendance/internal/server"
	"attendance/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging).With().Str("app", "api").Logger()
	clock := quartz.NewReal()

	ctx := context.Background()

	store, closeStore, err := database.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	redisClient, err := queue.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	services := service.NewServices(store, clock, cfg, logger)
	handlerSet := handlers.NewHandlerSet(logger, cfg, services, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, clock, handlerSet)

	var taskQueue jobs.TaskQueue
	if redisClient != nil {
		taskQueue = queue.NewPublisher(redisClient, cfg.Jobs.Stream, clock)
	}
	scheduler := jobs.NewScheduler(taskQueue, cfg.Jobs, clock, cfg.Attendance.Location(), logger.With().Str("component", "scheduler").Logger())
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, closeStore, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, closeStore func(), redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduled jobs still running at exit")
	}

	closeStore()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
