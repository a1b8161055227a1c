package antifraud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/metrics"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

// Handler evaluates each created transaction and publishes the verdict.
type Handler struct {
	limits    LimitsSource
	publisher bus.Publisher
	topic     string
	logger    *slog.Logger
	now       func() time.Time
}

func NewHandler(limits LimitsSource, publisher bus.Publisher, validatedTopic string, logger *slog.Logger) *Handler {
	return &Handler{
		limits:    limits,
		publisher: publisher,
		topic:     validatedTopic,
		logger:    logger.With("component", "antifraud"),
		now:       time.Now,
	}
}

// Handle returns the publish error when the verdict could not be delivered, so
// the created event is not acknowledged.
func (h *Handler) Handle(ctx context.Context, ev event.TransactionCreated) error {
	verdict := Evaluate(*ev.Value, *ev.TotalValueDaily, h.limits.Limits())

	status := transaction.StatusApproved
	if !verdict.Valid {
		status = transaction.StatusRejected
	}

	metrics.FraudVerdicts.WithLabelValues(status.String()).Inc()

	valid := verdict.Valid
	out := event.TransactionValidated{
		TransactionExternalID: ev.TransactionExternalID,
		IsValid:               &valid,
		ValidationReason:      verdict.Reason,
		ProcessedAt:           h.now().UTC(),
		Status:                status.String(),
	}

	if err := h.publisher.Publish(ctx, h.topic, out); err != nil {
		return fmt.Errorf("publishing verdict for %s: %w", ev.TransactionExternalID, err)
	}

	h.logger.Info("transaction evaluated",
		"external_id", ev.TransactionExternalID,
		"value", ev.Value.String(),
		"daily_total", ev.TotalValueDaily.String(),
		"valid", verdict.Valid,
		"reason", verdict.Reason)

	return nil
}
