package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txflow/internal/bus/memory"
	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/export"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	"github.com/MrJamesThe3rd/txflow/internal/transaction/memstore"
)

func TestService_Export(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	settled := created.Add(2 * time.Second)

	approved := transaction.Transaction{
		ExternalID:      uuid.New(),
		SourceAccountID: uuid.New(),
		TargetAccountID: uuid.New(),
		Value:           decimal.RequireFromString("120.5"),
		Status:          transaction.StatusApproved,
		CreatedAt:       created,
		UpdatedAt:       &settled,
	}
	pending := transaction.Transaction{
		ExternalID:      uuid.New(),
		SourceAccountID: uuid.New(),
		TargetAccountID: uuid.New(),
		Value:           decimal.NewFromInt(3),
		Status:          transaction.StatusPending,
		CreatedAt:       created.Add(time.Minute),
	}

	store := memstore.New()
	store.Put(approved)
	store.Put(pending)

	svc := export.NewService(transaction.NewService(store, memory.NewBroker(), event.TopicTransactionCreated, logging.Discard()))

	type testCase struct {
		name     string
		filter   transaction.ListFilter
		wantRows [][]string
	}

	tests := []testCase{
		{
			name: "All",
			wantRows: [][]string{
				{approved.ExternalID.String(), approved.SourceAccountID.String(), approved.TargetAccountID.String(),
					"120.50", "Approved", "2026-03-01T09:30:00Z", "2026-03-01T09:30:02Z"},
				{pending.ExternalID.String(), pending.SourceAccountID.String(), pending.TargetAccountID.String(),
					"3.00", "Pending", "2026-03-01T09:31:00Z", ""},
			},
		},
		{
			name:   "ByStatus",
			filter: transaction.ListFilter{Status: new(transaction.StatusPending)},
			wantRows: [][]string{
				{pending.ExternalID.String(), pending.SourceAccountID.String(), pending.TargetAccountID.String(),
					"3.00", "Pending", "2026-03-01T09:31:00Z", ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			n, err := svc.Export(context.Background(), &buf, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantRows), n)

			rows, err := csv.NewReader(&buf).ReadAll()
			require.NoError(t, err)
			require.NotEmpty(t, rows)
			assert.Equal(t, "transaction_external_id", rows[0][0])
			assert.Equal(t, tt.wantRows, rows[1:])
		})
	}
}

func TestService_ExportListFailure(t *testing.T) {
	boom := errors.New("db down")
	store := memstore.New().WithError(boom)
	svc := export.NewService(transaction.NewService(store, memory.NewBroker(), event.TopicTransactionCreated, logging.Discard()))

	var buf bytes.Buffer

	_, err := svc.Export(context.Background(), &buf, transaction.ListFilter{})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, buf.Len())
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 5, 0, time.UTC)

	assert.Equal(t, "transactions_20260301T093005Z.csv", export.Filename(transaction.ListFilter{}, now))
	assert.Equal(t, "transactions_Rejected_20260301T093005Z.csv",
		export.Filename(transaction.ListFilter{Status: new(transaction.StatusRejected)}, now))
}
