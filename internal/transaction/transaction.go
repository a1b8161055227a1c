package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseStatus maps a status label onto a Status. Labels are matched exactly.
func ParseStatus(label string) (Status, error) {
	switch s := Status(label); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, label)
	}
}

// IsTerminal reports whether no further transition is expected from s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) String() string { return string(s) }

// Transaction is a transfer of Value from the source to the target account.
type Transaction struct {
	ExternalID      uuid.UUID
	SourceAccountID uuid.UUID
	TargetAccountID uuid.UUID
	Value           decimal.Decimal
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// Approve moves a Pending transaction to Approved.
func (t *Transaction) Approve() error { return t.transition(StatusApproved) }

// Reject moves a Pending transaction to Rejected.
func (t *Transaction) Reject() error { return t.transition(StatusRejected) }

func (t *Transaction) transition(to Status) error {
	if t.Status == to {
		return nil
	}

	if t.Status != StatusPending {
		return fmt.Errorf("%w: %s is already %s", ErrStatusConflict, t.ExternalID, t.Status)
	}

	t.Status = to

	return nil
}
