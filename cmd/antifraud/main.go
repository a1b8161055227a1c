package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/txflow/internal/antifraud"
	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/bus/kafka"
	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/metrics"
	"github.com/MrJamesThe3rd/txflow/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format).With("service", "antifraud")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limits, err := limitsSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to load antifraud limits", "error", err)
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Error("failed to create producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	source, err := kafka.NewSource(cfg.Kafka, cfg.Kafka.Group(pipeline.AntifraudGroup), cfg.Kafka.CreatedTopic, logger)
	if err != nil {
		logger.Error("failed to create consumer", "error", err)
		os.Exit(1)
	}

	go metrics.Serve(ctx, cfg.App.MetricsAddr, logger)

	group := bus.NewGroup().
		Add(pipeline.Antifraud(cfg.Kafka, source, limits, producer, logger))

	if err := group.Run(ctx); err != nil {
		logger.Error("antifraud worker stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("antifraud worker stopped")
}

// limitsSource returns the environment limits, or a watched file that
// overrides them when ANTIFRAUD_LIMITS_FILE is set.
func limitsSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (antifraud.LimitsSource, error) {
	fromEnv := antifraud.Limits{
		MaxTransactionValue:  cfg.Antifraud.MaxTransactionValue,
		MaxDailyAccumulation: cfg.Antifraud.MaxDailyAccumulation,
	}

	if cfg.Antifraud.LimitsFile == "" {
		return antifraud.StaticLimits(fromEnv), nil
	}

	loader, err := antifraud.NewLimitsLoader(cfg.Antifraud.LimitsFile, fromEnv, logger)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := loader.Watch(ctx); err != nil {
			logger.Warn("limits watcher unavailable, hot reload disabled", "error", err)
		}
	}()

	return loader, nil
}
