package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txflow/internal/antifraud"
	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/bus/memory"
	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/pipeline"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	"github.com/MrJamesThe3rd/txflow/internal/transaction/memstore"
)

var kafkaCfg = config.Kafka{
	CreatedTopic:   "transaction-created",
	ValidatedTopic: "transaction-validated",
}

type env struct {
	broker *memory.Broker
	store  *memstore.Store
	svc    *transaction.Service
	stop   func()
}

func start(t *testing.T, limits antifraud.Limits) *env {
	t.Helper()

	broker := memory.NewBroker()
	store := memstore.New()
	logger := logging.Discard()
	svc := transaction.NewService(store, broker, kafkaCfg.CreatedTopic, logger)

	group := bus.NewGroup().
		Add(pipeline.Antifraud(kafkaCfg, broker.Subscribe(pipeline.AntifraudGroup, kafkaCfg.CreatedTopic),
			antifraud.StaticLimits(limits), broker, logger)).
		Add(pipeline.Settlement(kafkaCfg, broker.Subscribe(pipeline.SettlementGroup, kafkaCfg.ValidatedTopic),
			svc, logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- group.Run(ctx) }()

	e := &env{broker: broker, store: store, svc: svc}
	e.stop = func() {
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("pipeline did not stop")
		}
	}

	return e
}

func (e *env) waitStatus(t *testing.T, id uuid.UUID, want transaction.Status) {
	t.Helper()

	assert.Eventually(t, func() bool {
		tx, err := e.store.GetTransaction(context.Background(), id)
		return err == nil && tx.Status == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPipeline_EndToEnd(t *testing.T) {
	type testCase struct {
		name   string
		values []string
		want   []transaction.Status
	}

	tests := []testCase{
		{
			name:   "UnderBothThresholds",
			values: []string{"150.25"},
			want:   []transaction.Status{transaction.StatusApproved},
		},
		{
			name:   "OverTransactionLimit",
			values: []string{"2100"},
			want:   []transaction.Status{transaction.StatusRejected},
		},
		{
			name:   "DailyAccumulationTripsOnThirdTransfer",
			values: []string{"2000", "2000", "1500"},
			want:   []transaction.Status{transaction.StatusApproved, transaction.StatusApproved, transaction.StatusRejected},
		},
	}

	limits := antifraud.Limits{MaxTransactionValue: decimal.NewFromInt(2000), MaxDailyAccumulation: decimal.NewFromInt(5000)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := start(t, limits)
			defer e.stop()

			source := uuid.New()

			for i, v := range tt.values {
				tx, err := e.svc.Create(context.Background(), transaction.CreateParams{
					SourceAccountID: source,
					TargetAccountID: uuid.New(),
					Value:           decimal.RequireFromString(v),
				})
				require.NoError(t, err)
				assert.Equal(t, transaction.StatusPending, tx.Status)

				e.waitStatus(t, tx.ExternalID, tt.want[i])
			}

			assert.Eventually(t, func() bool {
				return e.broker.Committed(pipeline.SettlementGroup, kafkaCfg.ValidatedTopic) == int64(len(tt.values))
			}, 2*time.Second, 5*time.Millisecond)
			assert.Equal(t, int64(len(tt.values)), e.broker.Committed(pipeline.AntifraudGroup, kafkaCfg.CreatedTopic))
		})
	}
}

func TestPipeline_OrphanedRecordIsRecoveredByRepublish(t *testing.T) {
	e := start(t, antifraud.Limits{MaxTransactionValue: decimal.NewFromInt(2000), MaxDailyAccumulation: decimal.NewFromInt(20000)})
	defer e.stop()

	e.broker.FailPublish(func(string) error { return assert.AnError })

	tx, err := e.svc.Create(context.Background(), transaction.CreateParams{
		SourceAccountID: uuid.New(),
		TargetAccountID: uuid.New(),
		Value:           decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	e.broker.FailPublish(nil)

	stale, err := e.svc.ListStale(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, tx.ExternalID, stale[0].ExternalID)

	_, err = e.svc.Republish(context.Background(), tx.ExternalID)
	require.NoError(t, err)

	e.waitStatus(t, tx.ExternalID, transaction.StatusApproved)
}

func TestPipeline_VerdictForUnknownTransactionStaysUncommitted(t *testing.T) {
	e := start(t, antifraud.Limits{MaxTransactionValue: decimal.NewFromInt(2000), MaxDailyAccumulation: decimal.NewFromInt(20000)})
	defer e.stop()

	valid := true
	require.NoError(t, e.broker.Publish(context.Background(), kafkaCfg.ValidatedTopic, map[string]any{
		"transaction_external_id": uuid.New(),
		"is_valid":                valid,
		"status":                  "Approved",
	}))

	tx, err := e.svc.Create(context.Background(), transaction.CreateParams{
		SourceAccountID: uuid.New(),
		TargetAccountID: uuid.New(),
		Value:           decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	e.waitStatus(t, tx.ExternalID, transaction.StatusApproved)

	// The later verdict commits past the failed one.
	assert.Eventually(t, func() bool {
		return e.broker.Committed(pipeline.SettlementGroup, kafkaCfg.ValidatedTopic) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, e.broker.Commits(pipeline.SettlementGroup, kafkaCfg.ValidatedTopic))
}
