package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/bus/kafka"
	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/database"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/metrics"
	"github.com/MrJamesThe3rd/txflow/internal/pipeline"
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

	logger := logging.New(cfg.Log.Level, cfg.Log.Format).With("service", "worker")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Applying statuses never publishes.
	transactionService := transaction.NewService(txStore.New(db), nil, cfg.Kafka.CreatedTopic, logger)

	source, err := kafka.NewSource(cfg.Kafka, cfg.Kafka.Group(pipeline.SettlementGroup), cfg.Kafka.ValidatedTopic, logger)
	if err != nil {
		logger.Error("failed to create consumer", "error", err)
		os.Exit(1)
	}

	go metrics.Serve(ctx, cfg.App.MetricsAddr, logger)

	group := bus.NewGroup().
		Add(pipeline.Settlement(cfg.Kafka, source, transactionService, logger))

	if err := group.Run(ctx); err != nil {
		logger.Error("status worker stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("status worker stopped")
}
