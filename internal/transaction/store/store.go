package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanTransaction reads a row in selectTransactionColumns order.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var statusStr string

	if err := s.Scan(
		&tx.ExternalID, &tx.SourceAccountID, &tx.TargetAccountID, &tx.Value, &statusStr,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Status = transaction.Status(statusStr)
	tx.CreatedAt = tx.CreatedAt.UTC()

	return &tx, nil
}

const selectTransactionColumns = `
	external_id, source_account_id, target_account_id, value, status, created_at, updated_at
`

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE external_id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, string(*filter.Status))
		argIdx++
	}

	if filter.CreatedBefore != nil {
		query += fmt.Sprintf(" AND created_at < $%d", argIdx)

		args = append(args, *filter.CreatedBefore)
		argIdx++
	}

	query += " ORDER BY created_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

// UpdateStatus moves id from one status to another and reports
// ErrStatusConflict when the stored status is no longer from.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to transaction.Status) error {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = NOW()
		WHERE external_id = $2 AND status = $3
	`

	res, err := s.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s is no longer %s", transaction.ErrStatusConflict, id, from)
	}

	return nil
}

func (s *Store) DailyTotal(ctx context.Context, accountID uuid.UUID, at time.Time, excluding uuid.UUID) (decimal.Decimal, error) {
	return dailyTotal(ctx, s.db, accountID, at, excluding)
}

func dailyTotal(ctx context.Context, q querier, accountID uuid.UUID, at time.Time, excluding uuid.UUID) (decimal.Decimal, error) {
	at = at.UTC()
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	query := `
		SELECT COALESCE(SUM(value), 0)
		FROM transactions
		WHERE source_account_id = $1
		  AND created_at >= $2 AND created_at <= $3
		  AND external_id <> $4
	`

	var total decimal.Decimal
	if err := q.QueryRowContext(ctx, query, accountID, dayStart, at, excluding).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("summing daily total: %w", err)
	}

	return total, nil
}

func accountLockKey(accountID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("daily-total"))
	h.Write([]byte{0})
	h.Write(accountID[:])

	return int64(h.Sum64())
}

type createTx struct {
	tx *sql.Tx
}

func (s *Store) BeginCreate(ctx context.Context, sourceAccountID uuid.UUID) (transaction.CreateTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning create tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", accountLockKey(sourceAccountID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring account lock: %w", err)
	}

	return &createTx{tx: dbTx}, nil
}

func (c *createTx) Commit() error { return c.tx.Commit() }

// Rollback is a no-op after a successful Commit.
func (c *createTx) Rollback() error {
	if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

func (c *createTx) DailyTotal(ctx context.Context, accountID uuid.UUID, at time.Time, excluding uuid.UUID) (decimal.Decimal, error) {
	return dailyTotal(ctx, c.tx, accountID, at, excluding)
}

func (c *createTx) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (external_id, source_account_id, target_account_id, value, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL)
	`

	_, err := c.tx.ExecContext(ctx, query,
		tx.ExternalID,
		tx.SourceAccountID,
		tx.TargetAccountID,
		tx.Value,
		string(tx.Status),
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}
