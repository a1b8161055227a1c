// Package settlement applies fraud verdicts to stored transactions.
package settlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

// StatusApplier is the part of transaction.Service the handler depends on.
type StatusApplier interface {
	ApplyStatus(ctx context.Context, id uuid.UUID, label string) (*transaction.Transaction, error)
}

type Handler struct {
	applier StatusApplier
	logger  *slog.Logger
}

func NewHandler(applier StatusApplier, logger *slog.Logger) *Handler {
	return &Handler{applier: applier, logger: logger.With("component", "settlement")}
}

// Handle derives the target status from the verdict. A transaction that was
// already settled differently is logged and acknowledged; every other error is
// returned so the message stays uncommitted.
func (h *Handler) Handle(ctx context.Context, ev event.TransactionValidated) error {
	label := transaction.StatusRejected.String()
	if *ev.IsValid {
		label = transaction.StatusApproved.String()
	}

	logger := h.logger.With("external_id", ev.TransactionExternalID, "status", label)

	if ev.Status != "" && ev.Status != label {
		logger.Warn("carried status disagrees with verdict, using verdict", "carried_status", ev.Status)
	}

	tx, err := h.applier.ApplyStatus(ctx, ev.TransactionExternalID, label)
	if err != nil {
		if errors.Is(err, transaction.ErrStatusConflict) {
			logger.Error("transaction already settled with another status, acknowledging", "error", err)
			return nil
		}

		return err
	}

	logger.Info("verdict applied", "reason", ev.ValidationReason, "stored_status", tx.Status)

	return nil
}
