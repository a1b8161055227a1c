// Package pipeline builds the consumers run by the antifraud and status
// workers.
package pipeline

import (
	"log/slog"

	"github.com/MrJamesThe3rd/txflow/internal/antifraud"
	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/settlement"
)

const (
	AntifraudGroup  = "antifraud"
	SettlementGroup = "transactions-status"
)

func consumerOpts(cfg config.Kafka) []bus.Option {
	return []bus.Option{bus.WithHandlerRetries(cfg.HandlerRetries, cfg.HandlerRetryBackoff)}
}

// Antifraud consumes created events from source and publishes verdicts to the
// validated topic.
func Antifraud(
	cfg config.Kafka,
	source bus.Source,
	limits antifraud.LimitsSource,
	publisher bus.Publisher,
	logger *slog.Logger,
) *bus.Consumer[event.TransactionCreated] {
	handler := antifraud.NewHandler(limits, publisher, cfg.ValidatedTopic, logger)

	return bus.NewConsumer[event.TransactionCreated](source, cfg.CreatedTopic, handler, logger, consumerOpts(cfg)...)
}

// Settlement consumes verdicts from source and applies them to stored
// transactions.
func Settlement(
	cfg config.Kafka,
	source bus.Source,
	applier settlement.StatusApplier,
	logger *slog.Logger,
) *bus.Consumer[event.TransactionValidated] {
	handler := settlement.NewHandler(applier, logger)

	return bus.NewConsumer[event.TransactionValidated](source, cfg.ValidatedTopic, handler, logger, consumerOpts(cfg)...)
}
