package antifraud_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/txflow/internal/antifraud"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEvaluate(t *testing.T) {
	type testCase struct {
		name       string
		value      string
		dailyTotal string
		limits     antifraud.Limits
		wantValid  bool
		wantReason string
	}

	defaults := antifraud.Limits{MaxTransactionValue: d("2000"), MaxDailyAccumulation: d("20000")}
	tight := antifraud.Limits{MaxTransactionValue: d("2000"), MaxDailyAccumulation: d("5000")}

	tests := []testCase{
		{
			name:       "OverTransactionLimit",
			value:      "2100",
			dailyTotal: "0",
			limits:     defaults,
			wantReason: "transaction limit",
		},
		{
			name:       "OverDailyAccumulation",
			value:      "100",
			dailyTotal: "4950",
			limits:     tight,
			wantReason: "5050.00",
		},
		{
			name:       "UnderBothLimits",
			value:      "50",
			dailyTotal: "4950",
			limits:     tight,
			wantValid:  true,
		},
		{
			name:       "TransactionLimitIsInclusive",
			value:      "2000",
			dailyTotal: "0",
			limits:     defaults,
			wantValid:  true,
		},
		{
			name:       "DailyLimitIsInclusive",
			value:      "50",
			dailyTotal: "4950",
			limits:     antifraud.Limits{MaxTransactionValue: d("2000"), MaxDailyAccumulation: d("5000")},
			wantValid:  true,
		},
		{
			name:       "TransactionRuleWinsOverDailyRule",
			value:      "2500",
			dailyTotal: "19000",
			limits:     defaults,
			wantReason: "transaction limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := antifraud.Evaluate(d(tt.value), d(tt.dailyTotal), tt.limits)

			assert.Equal(t, tt.wantValid, got.Valid)
			assert.NotEmpty(t, got.Reason)

			if tt.wantReason != "" {
				assert.Contains(t, got.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	limits := antifraud.Limits{MaxTransactionValue: d("2000"), MaxDailyAccumulation: d("5000")}

	first := antifraud.Evaluate(d("100"), d("4950"), limits)
	second := antifraud.Evaluate(d("100"), d("4950"), limits)

	assert.Equal(t, first, second)
	assert.True(t, d("2000").Equal(limits.MaxTransactionValue))
}

func TestLimits_Validate(t *testing.T) {
	assert.NoError(t, antifraud.Limits{MaxTransactionValue: d("1"), MaxDailyAccumulation: d("1")}.Validate())
	assert.Error(t, antifraud.Limits{MaxTransactionValue: d("0"), MaxDailyAccumulation: d("1")}.Validate())
	assert.Error(t, antifraud.Limits{MaxTransactionValue: d("1"), MaxDailyAccumulation: d("-1")}.Validate())
}
