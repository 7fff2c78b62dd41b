package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/gateway"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	logger.Info().
		Str("version", cfg.App.Version).
		Str("server_url", cfg.Gateway.ServerURL).
		Msg("Starting ShareIt gateway")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	// Счетчик лимитов общий между репликами шлюза, пока жив redis
	var cache domain.CacheRepository
	redisClient := repository.NewRedisClient(cfg.Redis)
	memoryCache := repository.NewMemoryCacheRepository()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis is unavailable, rate limits are per-instance")
		cache = memoryCache
	} else {
		cache = repository.NewFailoverCacheRepository(
			repository.NewRedisCacheRepository(redisClient), memoryCache, logger)
	}

	client := gateway.NewClient(cfg.Gateway.ServerURL)
	server := gateway.NewServer(cfg.Gateway, client, cache, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Gateway server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logger.Info().Msg("Gateway stopped")
}
