package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bollette/internal/amqp"
	"bollette/internal/backend"
	"bollette/internal/config"
	applog "bollette/internal/log"
	"bollette/internal/mirror"
	"bollette/internal/services"
	"bollette/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting bollette-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(backend.AppSettings{
		DataBackend:  cfg.DataBackend,
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := backend.NewFactory(logger.Logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize remote store", "error", err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}

	blobs, err := mirror.NewFileBlobStore(cfg.CacheDir)
	if err != nil {
		logger.Error("Failed to initialize cache directory", "error", err, "dir", cfg.CacheDir)
		os.Exit(1)
	}
	billMirror := mirror.New(blobs)
	if _, _, err := billMirror.Load(); err != nil {
		logger.Warn("Failed to load cached bills", "error", err)
	}

	svc := services.NewBillService(result.Store, billMirror, nil)
	svc.SetHorizonMonths(cfg.HorizonMonths)

	refreshWorker := worker.NewRefreshWorker(svc, cfg.RefreshInterval)

	g, gctx := errgroup.WithContext(ctx)

	// Periodic refresh is the backstop for lost messages; it runs with or
	// without a broker.
	g.Go(func() error {
		err := refreshWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeRefresh(gctx, func(msg *amqp.RefreshMessage) error {
				return refreshWorker.HandleRefreshMessage(gctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})

		logger.Info("Consuming refresh events",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	} else {
		logger.Info("No AMQP URL configured, running on periodic refresh only",
			"interval", cfg.RefreshInterval)
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
