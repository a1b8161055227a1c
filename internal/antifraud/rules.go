// Package antifraud screens created transactions against value limits and
// publishes the verdict.
package antifraud

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Limits are the thresholds a transaction is checked against.
type Limits struct {
	MaxTransactionValue  decimal.Decimal
	MaxDailyAccumulation decimal.Decimal
}

func (l Limits) Validate() error {
	if !l.MaxTransactionValue.IsPositive() {
		return errors.New("max transaction value must be positive")
	}

	if !l.MaxDailyAccumulation.IsPositive() {
		return errors.New("max daily accumulation must be positive")
	}

	return nil
}

type Verdict struct {
	Valid  bool
	Reason string
}

// Evaluate applies the rules in order and stops at the first that fails: the
// single-transaction limit, then the projected daily accumulation. Both limits
// are inclusive.
func Evaluate(value, dailyTotal decimal.Decimal, limits Limits) Verdict {
	if value.GreaterThan(limits.MaxTransactionValue) {
		return Verdict{
			Reason: fmt.Sprintf("transaction value %s exceeds the transaction limit of %s",
				value.StringFixed(2), limits.MaxTransactionValue.StringFixed(2)),
		}
	}

	projected := dailyTotal.Add(value)
	if projected.GreaterThan(limits.MaxDailyAccumulation) {
		return Verdict{
			Reason: fmt.Sprintf("daily accumulation would reach %s, exceeding the daily accumulation limit of %s",
				projected.StringFixed(2), limits.MaxDailyAccumulation.StringFixed(2)),
		}
	}

	return Verdict{Valid: true, Reason: "transaction passed all antifraud checks"}
}
