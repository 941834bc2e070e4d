package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/amqp"
	"moneta/internal/auth"
	"moneta/internal/config"
	apphttp "moneta/internal/http"
	"moneta/internal/ledger"
	"moneta/internal/ledger/memory"
	"moneta/internal/services"
	"moneta/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var store ledger.Store
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		store = repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		store = memory.New()
		logger.Info("Initialized memory backend")
	}
	defer store.Close()

	// AMQP is optional; without it events are simply not published.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer events.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	authService := auth.NewService(store, cfg.TokenTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Auth:         authService,
		Accounts:     services.NewAccountService(store),
		Transactions: services.NewTransactionService(store, events),
		Loans:        services.NewLoanService(store),
		Investments:  services.NewInvestmentService(store),
		Categories:   services.NewCategoryService(store),
		Reminders:    services.NewReminderService(store, events),
		Reports:      services.NewReportService(store, nil),
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Expired sessions are purged hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := authService.PurgeExpired(ctx); err != nil {
					logger.Error("Session purge failed", "error", err)
				}
			}
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Server starting", "addr", srv.Addr, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
