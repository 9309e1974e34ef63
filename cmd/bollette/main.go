package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bollette/internal/amqp"
	"bollette/internal/backend"
	"bollette/internal/config"
	apphttp "bollette/internal/http"
	applog "bollette/internal/log"
	"bollette/internal/mirror"
	"bollette/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting bollette server")

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

	// Paint from the last-known-good blob before touching the network.
	if bills, ok, err := billMirror.Load(); err != nil {
		logger.Warn("Failed to load cached bills", "error", err)
	} else if ok {
		logger.Info("Loaded cached bills", "count", len(bills))
	}

	// AMQP is optional: without a broker, mutations simply skip the
	// refresh announcements.
	var notifier services.RefreshNotifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without refresh events", "error", err)
		} else {
			defer amqpClient.Close()
			notifier = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewBillService(result.Store, billMirror, notifier)
	svc.SetHorizonMonths(cfg.HorizonMonths)

	srv := apphttp.NewServer(":"+cfg.Port, svc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	// Reconcile against the remote store in the background; the stale
	// mirror serves requests in the meantime.
	g.Go(func() error {
		if _, err := svc.Refresh(gctx); err != nil {
			logger.Warn("Initial refresh failed, serving cached bills", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting bollette server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
