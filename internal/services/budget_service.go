package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"envelopes/internal/core"
	"envelopes/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrEnvelopeNameRequired = errors.New("envelope name is required")
	ErrUnknownEnvelope      = errors.New("unknown envelope")
	ErrUnknownPeriod        = errors.New("unknown period")
	ErrInvalidPeriodRange   = errors.New("period end must not precede start")
)

// TransactionEvents publishes transaction-recorded notifications for the
// export worker. A nil publisher disables events; publishing failures are
// logged and never fail the write.
type TransactionEvents interface {
	PublishTransactionRecorded(ctx context.Context, id string) error
}

// BudgetService orchestrates periods, envelopes and transactions over a
// repository, and derives the dashboard views through the core engine.
type BudgetService struct {
	repo   storage.Repository
	events TransactionEvents
}

func NewBudgetService(repo storage.Repository, events TransactionEvents) *BudgetService {
	return &BudgetService{repo: repo, events: events}
}

// CreatePeriod stores a new period. Nil bounds default to the payday
// schedule covering now.
func (s *BudgetService) CreatePeriod(ctx context.Context, start, end *time.Time, now time.Time) (storage.Period, error) {
	defStart, defEnd := defaultPeriodBounds(now)
	if start == nil {
		start = &defStart
	}
	if end == nil {
		end = &defEnd
	}
	if end.Before(*start) {
		return storage.Period{}, ErrInvalidPeriodRange
	}
	p := storage.Period{
		ID:        uuid.NewString(),
		StartDate: start.UTC().Truncate(24 * time.Hour),
		EndDate:   end.UTC().Truncate(24 * time.Hour),
	}
	if err := s.repo.SavePeriod(ctx, p); err != nil {
		return storage.Period{}, fmt.Errorf("save period: %w", err)
	}
	slog.InfoContext(ctx, "Period created",
		"period_id", p.ID,
		"start", p.StartDate.Format(time.DateOnly),
		"end", p.EndDate.Format(time.DateOnly))
	return p, nil
}

// CurrentPeriod returns the summary of the period covering now, creating
// the scheduled period first when none exists yet.
func (s *BudgetService) CurrentPeriod(ctx context.Context, now time.Time) (core.Period, error) {
	p, err := s.repo.GetCurrentPeriod(ctx, now)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "No current period, creating one", "now", now.Format(time.DateOnly))
		p, err = s.CreatePeriod(ctx, nil, nil, now)
	}
	if err != nil {
		return core.Period{}, err
	}
	return s.PeriodSummary(ctx, p.ID, now)
}

// PeriodSummary loads a period and folds its transactions into totals and
// per-envelope figures.
func (s *BudgetService) PeriodSummary(ctx context.Context, id string, now time.Time) (core.Period, error) {
	p, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return core.Period{}, err
	}

	txs, err := s.repo.ListTransactions(ctx, storage.TransactionFilter{PeriodID: &id})
	if err != nil {
		return core.Period{}, fmt.Errorf("list transactions: %w", err)
	}

	envelopes, err := s.repo.ListEnvelopes(ctx)
	if err != nil {
		return core.Period{}, fmt.Errorf("list envelopes: %w", err)
	}

	return buildPeriodSummary(p, envelopes, txs, now), nil
}

func (s *BudgetService) ListPeriods(ctx context.Context) ([]storage.Period, error) {
	return s.repo.ListPeriods(ctx)
}

// CreateEnvelope stores a new named envelope. The storage layer enforces
// name uniqueness and reports storage.ErrDuplicateEnvelope on conflict.
func (s *BudgetService) CreateEnvelope(ctx context.Context, name string) (storage.Envelope, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Envelope{}, ErrEnvelopeNameRequired
	}
	e := storage.Envelope{ID: uuid.NewString(), Name: name}
	if err := s.repo.CreateEnvelope(ctx, e); err != nil {
		return storage.Envelope{}, err
	}
	return e, nil
}

func (s *BudgetService) ListEnvelopes(ctx context.Context) ([]storage.Envelope, error) {
	return s.repo.ListEnvelopes(ctx)
}

func (s *BudgetService) DeleteEnvelope(ctx context.Context, id string) error {
	return s.repo.DeleteEnvelope(ctx, id)
}

// RecordTransaction validates the envelope reference, stores the movement
// and publishes a best-effort export event. The signed amount convention
// is the caller's: positive allocates into the envelope, negative spends.
func (s *BudgetService) RecordTransaction(ctx context.Context, t storage.Transaction) (storage.Transaction, error) {
	if _, err := s.repo.GetPeriod(ctx, t.PeriodID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Transaction{}, ErrUnknownPeriod
		}
		return storage.Transaction{}, fmt.Errorf("verify period: %w", err)
	}
	if _, err := s.repo.GetEnvelope(ctx, t.EnvelopeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Transaction{}, ErrUnknownEnvelope
		}
		return storage.Transaction{}, fmt.Errorf("verify envelope: %w", err)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date == "" {
		t.Date = time.Now().UTC().Format(time.RFC3339)
	}

	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return storage.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishTransactionRecorded(ctx, t.ID); err != nil {
			// Export is eventually consistent; the write already succeeded.
			slog.ErrorContext(ctx, "Failed to publish transaction event",
				"transaction_id", t.ID, "error", err)
		}
	}

	return t, nil
}

func (s *BudgetService) GetTransaction(ctx context.Context, id string) (storage.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *BudgetService) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]storage.Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// Close releases the underlying repository.
func (s *BudgetService) Close() error {
	return s.repo.Close()
}
