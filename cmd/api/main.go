package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/txflow/internal/bus/kafka"
	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/database"
	"github.com/MrJamesThe3rd/txflow/internal/export"
	txflowHttp "github.com/MrJamesThe3rd/txflow/internal/http"
	exportHandler "github.com/MrJamesThe3rd/txflow/internal/http/export"
	"github.com/MrJamesThe3rd/txflow/internal/http/importcsv"
	txHandler "github.com/MrJamesThe3rd/txflow/internal/http/transaction"
	"github.com/MrJamesThe3rd/txflow/internal/importer"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/txflow/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	if err := kafka.EnsureTopics(ctx, cfg.Kafka, logger); err != nil {
		logger.Warn("topic provisioning failed, continuing with existing topics", "error", err)
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Error("failed to create producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	transactionService := transaction.NewService(txStore.New(db), producer, cfg.Kafka.CreatedTopic, logger)

	importService := importer.NewService(transactionService, logger)
	exportService := export.NewService(transactionService)

	router := txflowHttp.New(
		txHandler.NewHandler(transactionService),
		importcsv.NewHandler(importService),
		exportHandler.NewHandler(exportService),
		cfg.Server.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}
