// Package importer creates transactions in bulk from transfer files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/MrJamesThe3rd/txflow/internal/metrics"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

type Creator interface {
	Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
}

type Service struct {
	creator Creator
	logger  *slog.Logger
}

func NewService(creator Creator, logger *slog.Logger) *Service {
	return &Service{
		creator: creator,
		logger:  logger.With("component", "importer"),
	}
}

type Result struct {
	Created []*transaction.Transaction
	Failed  []RowError
}

// Import parses r and creates one transaction per row, in file order, so each
// row's daily accumulation includes the rows above it. Rows that cannot be
// parsed or fail validation are reported in Failed; any other error stops the
// import and is returned with the partial result.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Result, error) {
	batch, err := Parse(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Failed: batch.Invalid}
	metrics.ImportedRows.WithLabelValues("invalid").Add(float64(len(batch.Invalid)))

	for _, row := range batch.Rows {
		tx, err := s.creator.Create(ctx, row.Params)
		if err != nil {
			if errors.Is(err, transaction.ErrValidation) {
				metrics.ImportedRows.WithLabelValues("invalid").Inc()
				res.Failed = append(res.Failed, RowError{Line: row.Line, Err: err})

				continue
			}

			metrics.ImportedRows.WithLabelValues("error").Inc()

			return res, fmt.Errorf("line %d: %w", row.Line, err)
		}

		metrics.ImportedRows.WithLabelValues("created").Inc()
		res.Created = append(res.Created, tx)
	}

	slices.SortFunc(res.Failed, func(a, b RowError) int { return a.Line - b.Line })

	s.logger.Info("transfer file imported", "created", len(res.Created), "failed", len(res.Failed))

	return res, nil
}
