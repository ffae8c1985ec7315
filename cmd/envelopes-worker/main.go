package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"envelopes/internal/amqp"
	"envelopes/internal/backend"
	"envelopes/internal/config"
	"envelopes/internal/export"
	applog "envelopes/internal/log"
	"envelopes/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting envelopes-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		// A memory backend lives inside the API process; the worker would
		// only ever see an empty store.
		logger.Warn("Worker expects the sqlite backend shared with the API", "backend", cfg.DataBackend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := backend.NewFactory(logger.Logger)
	repo, err := factory.CreateRepository(ctx, backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer repo.Close()

	writer, err := export.NewCSVWriter(cfg.ExportPath, cfg.ExportBatchSize)
	if err != nil {
		logger.Error("Failed to open ledger export", "error", err, "path", cfg.ExportPath)
		os.Exit(1)
	}
	defer writer.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	logger.Info("Consuming transaction events",
		"queue", cfg.AMQPQueue,
		"export_path", cfg.ExportPath)

	exportWorker := worker.NewExportWorker(repo, writer)
	if err := exportWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
