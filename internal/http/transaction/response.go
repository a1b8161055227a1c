package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

type transactionResponse struct {
	ExternalID      uuid.UUID          `json:"transaction_external_id"`
	SourceAccountID uuid.UUID          `json:"source_account_id"`
	TargetAccountID uuid.UUID          `json:"target_account_id"`
	Value           decimal.Decimal    `json:"value"`
	Status          transaction.Status `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       *time.Time         `json:"updated_at,omitempty"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ExternalID:      tx.ExternalID,
		SourceAccountID: tx.SourceAccountID,
		TargetAccountID: tx.TargetAccountID,
		Value:           tx.Value,
		Status:          tx.Status,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
