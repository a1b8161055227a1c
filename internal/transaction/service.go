package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/metrics"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// DailyTotal sums the values of accountID's transactions created on the
	// UTC day of at, up to and including at, leaving out excluding.
	DailyTotal(ctx context.Context, accountID uuid.UUID, at time.Time, excluding uuid.UUID) (decimal.Decimal, error)

	// BeginCreate opens a store transaction that holds an exclusive lock on
	// the source account until it is committed or rolled back.
	BeginCreate(ctx context.Context, sourceAccountID uuid.UUID) (CreateTx, error)
}

type CreateTx interface {
	DailyTotal(ctx context.Context, accountID uuid.UUID, at time.Time, excluding uuid.UUID) (decimal.Decimal, error)
	CreateTransaction(ctx context.Context, tx *Transaction) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo         Repository
	publisher    bus.Publisher
	createdTopic string
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(repo Repository, publisher bus.Publisher, createdTopic string, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		publisher:    publisher,
		createdTopic: createdTopic,
		logger:       logger.With("component", "transaction"),
		now:          time.Now,
	}
}

type CreateParams struct {
	SourceAccountID uuid.UUID
	TargetAccountID uuid.UUID
	Value           decimal.Decimal
}

func (p CreateParams) validate() error {
	switch {
	case p.SourceAccountID == uuid.Nil:
		return fmt.Errorf("%w: source account id is required", ErrValidation)
	case p.TargetAccountID == uuid.Nil:
		return fmt.Errorf("%w: target account id is required", ErrValidation)
	case !p.Value.IsPositive():
		return fmt.Errorf("%w: value must be greater than zero", ErrValidation)
	case p.Value.Exponent() < -2 && !p.Value.Equal(p.Value.Round(2)):
		return fmt.Errorf("%w: value has more than two decimal places", ErrValidation)
	}

	return nil
}

type ListFilter struct {
	Status        *Status
	CreatedBefore *time.Time
	Limit         int
}

// Create persists a Pending transaction and announces it on the created topic.
// The daily accumulation read and the insert run under the source account's
// lock so concurrent creations for one account see each other. A failed
// publish leaves the record Pending; ListStale and Republish recover it.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	createTx, err := s.repo.BeginCreate(ctx, params.SourceAccountID)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer createTx.Rollback()

	now := s.now().UTC()

	total, err := createTx.DailyTotal(ctx, params.SourceAccountID, now, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("daily total: %w", err)
	}

	tx := &Transaction{
		ExternalID:      uuid.New(),
		SourceAccountID: params.SourceAccountID,
		TargetAccountID: params.TargetAccountID,
		Value:           params.Value,
		Status:          StatusPending,
		CreatedAt:       now,
	}

	if err := createTx.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if err := createTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}

	if err := s.publishCreated(ctx, tx, total); err != nil {
		s.logger.Error("transaction stored but created event not published; it stays Pending until republished",
			"external_id", tx.ExternalID, "error", err)
	}

	return tx, nil
}

// ApplyStatus records the outcome of the fraud check. Re-applying the status a
// transaction already has is a no-op; switching between terminal statuses
// fails with ErrStatusConflict.
func (s *Service) ApplyStatus(ctx context.Context, id uuid.UUID, label string) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	to, err := ParseStatus(label)
	if err != nil {
		return nil, err
	}

	if !to.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot move a transaction to %s", ErrInvalidArgument, to)
	}

	from := tx.Status
	if from == to {
		metrics.StatusTransitions.WithLabelValues(to.String(), "duplicate").Inc()
		s.logger.Info("status already applied", "external_id", id, "status", to)

		return tx, nil
	}

	if to == StatusApproved {
		err = tx.Approve()
	} else {
		err = tx.Reject()
	}

	if err != nil {
		metrics.StatusTransitions.WithLabelValues(to.String(), "conflict").Inc()
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
		if !errors.Is(err, ErrStatusConflict) {
			return nil, fmt.Errorf("update status: %w", err)
		}

		// Another delivery got there first; settle on what it stored.
		current, getErr := s.repo.GetTransaction(ctx, id)
		if getErr != nil {
			return nil, getErr
		}

		if current.Status != to {
			metrics.StatusTransitions.WithLabelValues(to.String(), "conflict").Inc()
			return nil, fmt.Errorf("%w: %s is already %s", ErrStatusConflict, id, current.Status)
		}

		metrics.StatusTransitions.WithLabelValues(to.String(), "duplicate").Inc()

		return current, nil
	}

	updated := s.now().UTC()
	tx.UpdatedAt = &updated

	metrics.StatusTransitions.WithLabelValues(to.String(), "applied").Inc()
	s.logger.Info("status applied", "external_id", id, "from", from, "to", to)

	return tx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// GetOnDay returns the transaction only when it was created on the UTC day of day.
func (s *Service) GetOnDay(ctx context.Context, id uuid.UUID, day time.Time) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sameUTCDay(tx.CreatedAt, day) {
		return nil, ErrNotFound
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// ListStale returns Pending transactions created more than age ago.
func (s *Service) ListStale(ctx context.Context, age time.Duration, limit int) ([]*Transaction, error) {
	status := StatusPending
	before := s.now().UTC().Add(-age)

	return s.repo.ListTransactions(ctx, ListFilter{
		Status:        &status,
		CreatedBefore: &before,
		Limit:         limit,
	})
}

// Republish emits the created event again for a Pending transaction, with the
// daily accumulation recomputed as of its creation time.
func (s *Service) Republish(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s is already %s", ErrInvalidArgument, id, tx.Status)
	}

	total, err := s.repo.DailyTotal(ctx, tx.SourceAccountID, tx.CreatedAt, tx.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("daily total: %w", err)
	}

	if err := s.publishCreated(ctx, tx, total); err != nil {
		return nil, err
	}

	s.logger.Info("created event republished", "external_id", id)

	return tx, nil
}

func (s *Service) publishCreated(ctx context.Context, tx *Transaction, total decimal.Decimal) error {
	value := tx.Value

	return s.publisher.Publish(ctx, s.createdTopic, event.TransactionCreated{
		TransactionExternalID: tx.ExternalID,
		Value:                 &value,
		Status:                tx.Status.String(),
		TotalValueDaily:       &total,
	})
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()

	return ay == by && am == bm && ad == bd
}
