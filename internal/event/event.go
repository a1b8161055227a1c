// Package event holds the payloads exchanged between the services. Field names
// are the wire contract; required fields are enforced on decode.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicTransactionCreated   = "transaction-created"
	TopicTransactionValidated = "transaction-validated"
)

// TransactionCreated is emitted once a transaction has been persisted as
// Pending. TotalValueDaily is the source account's accumulation for the UTC day
// before this transaction.
type TransactionCreated struct {
	TransactionExternalID uuid.UUID        `json:"transaction_external_id" validate:"required"`
	Value                 *decimal.Decimal `json:"value"                   validate:"required"`
	Status                string           `json:"status"                  validate:"required"`
	TotalValueDaily       *decimal.Decimal `json:"total_value_daily"       validate:"required"`
}

func (e TransactionCreated) PartitionKey() string {
	return e.TransactionExternalID.String()
}

// TransactionValidated carries the fraud verdict for a transaction.
type TransactionValidated struct {
	TransactionExternalID uuid.UUID `json:"transaction_external_id" validate:"required"`
	IsValid               *bool     `json:"is_valid"                validate:"required"`
	ValidationReason      string    `json:"validation_reason"`
	ProcessedAt           time.Time `json:"processed_at"`
	Status                string    `json:"status"`
}

func (e TransactionValidated) PartitionKey() string {
	return e.TransactionExternalID.String()
}
