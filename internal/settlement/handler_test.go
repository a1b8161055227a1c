package settlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txflow/internal/bus/memory"
	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/settlement"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	"github.com/MrJamesThe3rd/txflow/internal/transaction/memstore"
)

func validated(id uuid.UUID, valid bool, status string) event.TransactionValidated {
	return event.TransactionValidated{
		TransactionExternalID: id,
		IsValid:               &valid,
		ValidationReason:      "checked",
		ProcessedAt:           time.Now().UTC(),
		Status:                status,
	}
}

func seed(store *memstore.Store, status transaction.Status) uuid.UUID {
	id := uuid.New()
	store.Put(transaction.Transaction{
		ExternalID:      id,
		SourceAccountID: uuid.New(),
		TargetAccountID: uuid.New(),
		Value:           decimal.NewFromInt(10),
		Status:          status,
		CreatedAt:       time.Now().UTC(),
	})

	return id
}

func TestHandler_Handle(t *testing.T) {
	type testCase struct {
		name       string
		stored     transaction.Status
		valid      bool
		carried    string
		unknownID  bool
		wantErr    error
		wantStatus transaction.Status
	}

	tests := []testCase{
		{name: "Approve", stored: transaction.StatusPending, valid: true, carried: "Approved", wantStatus: transaction.StatusApproved},
		{name: "Reject", stored: transaction.StatusPending, valid: false, carried: "Rejected", wantStatus: transaction.StatusRejected},
		{name: "VerdictWinsOverCarriedStatus", stored: transaction.StatusPending, valid: false, carried: "Approved", wantStatus: transaction.StatusRejected},
		{name: "DuplicateDelivery", stored: transaction.StatusApproved, valid: true, wantStatus: transaction.StatusApproved},
		{name: "ConflictIsAcknowledged", stored: transaction.StatusApproved, valid: false, wantStatus: transaction.StatusApproved},
		{name: "UnknownTransaction", unknownID: true, valid: true, wantErr: transaction.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			svc := transaction.NewService(store, memory.NewBroker(), event.TopicTransactionCreated, logging.Discard())
			h := settlement.NewHandler(svc, logging.Discard())

			id := uuid.New()
			if !tt.unknownID {
				id = seed(store, tt.stored)
			}

			err := h.Handle(context.Background(), validated(id, tt.valid, tt.carried))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)

			got, err := store.GetTransaction(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestHandler_StoreErrorPropagates(t *testing.T) {
	store := memstore.New()
	id := seed(store, transaction.StatusPending)
	store.WithError(errors.New("db down"))

	svc := transaction.NewService(store, memory.NewBroker(), event.TopicTransactionCreated, logging.Discard())
	h := settlement.NewHandler(svc, logging.Discard())

	err := h.Handle(context.Background(), validated(id, true, "Approved"))
	assert.ErrorContains(t, err, "db down")
}
