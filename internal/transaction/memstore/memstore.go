// Package memstore is an in-memory transaction.Repository used by tests and
// local runs that have no database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

type Store struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]transaction.Transaction
	locks map[uuid.UUID]*sync.Mutex
	err   error
}

func New() *Store {
	return &Store{
		rows:  make(map[uuid.UUID]transaction.Transaction),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// WithError makes every subsequent call fail with err. Pass nil to clear it.
func (s *Store) WithError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err

	return s
}

// Put stores tx as is, replacing any row with the same external id.
func (s *Store) Put(tx transaction.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[tx.ExternalID] = tx
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	tx, ok := s.rows[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}

	return &tx, nil
}

func (s *Store) ListTransactions(_ context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	var txs []*transaction.Transaction

	for _, row := range s.rows {
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}

		if filter.CreatedBefore != nil && !row.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}

		tx := row
		txs = append(txs, &tx)
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })

	if filter.Limit > 0 && len(txs) > filter.Limit {
		txs = txs[:filter.Limit]
	}

	return txs, nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, from, to transaction.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	tx, ok := s.rows[id]
	if !ok || tx.Status != from {
		return fmt.Errorf("%w: %s is no longer %s", transaction.ErrStatusConflict, id, from)
	}

	now := time.Now().UTC()
	tx.Status = to
	tx.UpdatedAt = &now
	s.rows[id] = tx

	return nil
}

func (s *Store) DailyTotal(_ context.Context, accountID uuid.UUID, at time.Time, excluding uuid.UUID) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return decimal.Zero, s.err
	}

	return s.dailyTotal(accountID, at, excluding), nil
}

func (s *Store) dailyTotal(accountID uuid.UUID, at time.Time, excluding uuid.UUID) decimal.Decimal {
	at = at.UTC()
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	total := decimal.Zero

	for id, row := range s.rows {
		if id == excluding || row.SourceAccountID != accountID {
			continue
		}

		if row.CreatedAt.Before(dayStart) || row.CreatedAt.After(at) {
			continue
		}

		total = total.Add(row.Value)
	}

	return total
}

func (s *Store) BeginCreate(_ context.Context, sourceAccountID uuid.UUID) (transaction.CreateTx, error) {
	s.mu.Lock()

	if s.err != nil {
		err := s.err
		s.mu.Unlock()

		return nil, err
	}

	lock, ok := s.locks[sourceAccountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sourceAccountID] = lock
	}
	s.mu.Unlock()

	lock.Lock()

	return &createTx{store: s, lock: lock}, nil
}

type createTx struct {
	store   *Store
	lock    *sync.Mutex
	pending []transaction.Transaction
	done    bool
}

func (c *createTx) DailyTotal(ctx context.Context, accountID uuid.UUID, at time.Time, excluding uuid.UUID) (decimal.Decimal, error) {
	return c.store.DailyTotal(ctx, accountID, at, excluding)
}

func (c *createTx) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.err != nil {
		return c.store.err
	}

	if _, exists := c.store.rows[tx.ExternalID]; exists {
		return fmt.Errorf("creating transaction: duplicate external id %s", tx.ExternalID)
	}

	c.pending = append(c.pending, *tx)

	return nil
}

func (c *createTx) Commit() error {
	if c.done {
		return fmt.Errorf("commit: transaction already finished")
	}

	c.store.mu.Lock()
	for _, tx := range c.pending {
		c.store.rows[tx.ExternalID] = tx
	}
	c.store.mu.Unlock()

	c.finish()

	return nil
}

func (c *createTx) Rollback() error {
	if c.done {
		return nil
	}

	c.finish()

	return nil
}

func (c *createTx) finish() {
	c.done = true
	c.pending = nil
	c.lock.Unlock()
}
