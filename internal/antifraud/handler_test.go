package antifraud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txflow/internal/antifraud"
	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/bus/memory"
	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
)

const validatedTopic = event.TopicTransactionValidated

func created(value, daily string) event.TransactionCreated {
	v := decimal.RequireFromString(value)
	total := decimal.RequireFromString(daily)

	return event.TransactionCreated{
		TransactionExternalID: uuid.New(),
		Value:                 &v,
		Status:                "Pending",
		TotalValueDaily:       &total,
	}
}

func TestHandler_Handle(t *testing.T) {
	type testCase struct {
		name       string
		event      event.TransactionCreated
		wantValid  bool
		wantStatus string
	}

	tests := []testCase{
		{name: "Approved", event: created("50", "4950"), wantValid: true, wantStatus: "Approved"},
		{name: "RejectedByValue", event: created("2100", "0"), wantStatus: "Rejected"},
		{name: "RejectedByDailyTotal", event: created("100", "4950"), wantStatus: "Rejected"},
	}

	limits := antifraud.StaticLimits{MaxTransactionValue: d("2000"), MaxDailyAccumulation: d("5000")}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := memory.NewBroker()
			h := antifraud.NewHandler(limits, broker, validatedTopic, logging.Discard())

			require.NoError(t, h.Handle(context.Background(), tt.event))

			msgs := broker.Messages(validatedTopic)
			require.Len(t, msgs, 1)
			assert.Equal(t, tt.event.TransactionExternalID.String(), string(msgs[0].Key))

			got, err := bus.Decode[event.TransactionValidated](msgs[0].Value)
			require.NoError(t, err)
			assert.Equal(t, tt.event.TransactionExternalID, got.TransactionExternalID)
			assert.Equal(t, tt.wantValid, *got.IsValid)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.NotEmpty(t, got.ValidationReason)
			assert.False(t, got.ProcessedAt.IsZero())
		})
	}
}

func TestHandler_PublishFailureIsReturned(t *testing.T) {
	broker := memory.NewBroker()
	broker.FailPublish(func(string) error { return errors.New("broker down") })

	h := antifraud.NewHandler(antifraud.StaticLimits(fallback), broker, validatedTopic, logging.Discard())

	err := h.Handle(context.Background(), created("10", "0"))
	assert.ErrorContains(t, err, "broker down")
}
