// Package export writes transactions out as CSV for reconciliation.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

var header = []string{
	"transaction_external_id",
	"source_account_id",
	"target_account_id",
	"value",
	"status",
	"created_at",
	"updated_at",
}

type Lister interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Service struct {
	lister Lister
}

func NewService(lister Lister) *Service {
	return &Service{lister: lister}
}

// Export writes the transactions matching filter to w, oldest first, and
// returns how many rows were written. Values keep two decimal places and
// timestamps are RFC 3339 in UTC; a transaction never settled has an empty
// updated_at.
func (s *Service) Export(ctx context.Context, w io.Writer, filter transaction.ListFilter) (int, error) {
	txs, err := s.lister.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for _, tx := range txs {
		if err := cw.Write(record(tx)); err != nil {
			return 0, fmt.Errorf("write %s: %w", tx.ExternalID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}

	return len(txs), nil
}

// Filename names an export of filter taken at now.
func Filename(filter transaction.ListFilter, now time.Time) string {
	name := "transactions"
	if filter.Status != nil {
		name += "_" + filter.Status.String()
	}

	return fmt.Sprintf("%s_%s.csv", name, now.UTC().Format("20060102T150405Z"))
}

func record(tx *transaction.Transaction) []string {
	updated := ""
	if tx.UpdatedAt != nil {
		updated = tx.UpdatedAt.UTC().Format(time.RFC3339)
	}

	return []string{
		tx.ExternalID.String(),
		tx.SourceAccountID.String(),
		tx.TargetAccountID.String(),
		tx.Value.StringFixed(2),
		tx.Status.String(),
		tx.CreatedAt.UTC().Format(time.RFC3339),
		updated,
	}
}
