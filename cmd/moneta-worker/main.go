package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"moneta/internal/amqp"
	"moneta/internal/config"
	"moneta/internal/export/sheets"
	"moneta/internal/storage"
	"moneta/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting moneta-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}
	if !cfg.MirrorEnabled {
		logger.Error("MIRROR_ENABLED must be set for the mirror worker")
		os.Exit(1)
	}

	store, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheetsClient, err := sheets.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	mirror := worker.NewMirrorWorker(store, sheetsClient)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.ConsumeLedgerEvents(gctx, func(e *amqp.LedgerEvent) error {
			return mirror.HandleEvent(gctx, e)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
