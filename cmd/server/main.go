package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/ledger"
	"shareit/internal/logging"
	"shareit/internal/memstore"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/seed"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
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
		Str("environment", cfg.App.Environment).
		Msg("Starting ShareIt server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort, logger)
	}

	// Хранилище: sqlite в проде, memory для локальных прогонов
	var store domain.Store
	var ledgerQueue domain.LedgerQueue
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := database.NewDB(cfg.Database.Path, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open database")
		}
		defer db.Close()
		store = db
		ledgerQueue = db

		if cfg.Backup.Enabled {
			backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
			go backup.Start(ctx)
		}
	case "memory":
		mem := memstore.New()
		store = mem
		ledgerQueue = mem
	default:
		logger.Fatal().Str("driver", cfg.Database.Driver).Msg("Unknown database driver")
	}

	if cfg.Database.SeedFile != "" {
		seedFile, err := seed.Load(cfg.Database.SeedFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Database.SeedFile).Msg("Failed to load seed file")
		}
		if err := seed.Apply(ctx, seedFile, store, logger); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply seed")
		}
	}

	// Кэш: redis с переключением на память при недоступности
	var cache domain.CacheRepository
	redisClient := repository.NewRedisClient(cfg.Redis)
	memoryCache := repository.NewMemoryCacheRepository()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis is unavailable, using in-memory cache")
		redisClient = nil
		cache = memoryCache
	} else {
		cache = repository.NewFailoverCacheRepository(
			repository.NewRedisCacheRepository(redisClient), memoryCache, logger)
	}

	eventBus := events.NewEventBus()
	subscribeEventLogging(eventBus, logger)

	var ledgerWorker domain.LedgerWorker
	if cfg.Ledger.Enabled {
		sink, err := buildLedgerSink(ctx, cfg.Ledger, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to init ledger sink")
		}

		w := worker.NewLedgerWorker(
			ledgerQueue,
			sink,
			redisClient,
			worker.RetryPolicy{
				MaxRetries:    cfg.Ledger.Retry.MaxRetries,
				InitialDelay:  time.Duration(cfg.Ledger.Retry.InitialDelay) * time.Second,
				MaxDelay:      time.Duration(cfg.Ledger.Retry.MaxDelay) * time.Second,
				BackoffFactor: cfg.Ledger.Retry.BackoffFactor,
			},
			time.Duration(cfg.Ledger.PollInterval)*time.Second,
			cfg.Ledger.BatchSize,
			logger,
		)
		go w.Start(ctx)
		ledgerWorker = w
	}

	userService := service.NewUserService(store, logger)
	itemService := service.NewItemService(store, cache, eventBus, logger)
	bookingService := service.NewBookingService(store, eventBus, ledgerWorker, logger)
	requestService := service.NewRequestService(store, logger)

	server := api.NewServer(cfg.Server, userService, itemService, bookingService, requestService, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}

// buildLedgerSink выбирает Google Sheets или локальный xlsx-файл.
func buildLedgerSink(ctx context.Context, cfg config.LedgerConfig, logger *zerolog.Logger) (domain.LedgerSink, error) {
	if cfg.Sheets.CredentialsFile != "" && cfg.Sheets.SpreadsheetID != "" {
		logger.Info().Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).Msg("Using Google Sheets ledger")
		return ledger.NewSheetsLedger(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
	}

	logger.Info().Str("path", cfg.ExcelPath).Msg("Using Excel ledger")
	return ledger.NewExcelLedger(cfg.ExcelPath)
}

func subscribeEventLogging(bus *events.EventBus, logger *zerolog.Logger) {
	logEvent := func(event *events.Event) error {
		logger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("Domain event")
		return nil
	}

	bus.Subscribe(events.EventBookingCreated, logEvent)
	bus.Subscribe(events.EventBookingApproved, logEvent)
	bus.Subscribe(events.EventBookingRejected, logEvent)
	bus.Subscribe(events.EventCommentAdded, logEvent)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("Metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server failed")
	}
}
