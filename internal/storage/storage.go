// Package storage defines the persistence records and the repository
// contract shared by the memory and sqlite backends.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateEnvelope = errors.New("envelope name already exists")
	ErrEnvelopeInUse     = errors.New("envelope has transactions")
)

type (
	// Period is a stored budgeting interval. Start and end are inclusive
	// calendar days; summary figures are derived at read time, never stored.
	Period struct {
		ID        string
		StartDate time.Time
		EndDate   time.Time
	}

	// Envelope is a stored budget category. Names are unique.
	Envelope struct {
		ID   string
		Name string
	}

	// Transaction is a stored financial movement. AmountMinor is signed
	// (positive allocates, negative spends). Date keeps the ISO 8601 string
	// exactly as recorded; the dashboard core buckets on it lexically.
	// Transactions are immutable once created.
	Transaction struct {
		ID          string
		PeriodID    string
		EnvelopeID  string
		AmountMinor int64
		Description string
		Category    string
		Date        string
	}

	// TransactionFilter narrows ListTransactions. Nil fields match all.
	TransactionFilter struct {
		PeriodID   *string
		EnvelopeID *string
	}
)

// Repository is the persistence contract. Implementations return
// ErrNotFound for missing ids, ErrDuplicateEnvelope for envelope name
// conflicts and ErrEnvelopeInUse when deleting an envelope that still has
// transactions. ListTransactions returns records ordered by date ascending.
type Repository interface {
	SavePeriod(ctx context.Context, p Period) error
	GetPeriod(ctx context.Context, id string) (Period, error)
	GetCurrentPeriod(ctx context.Context, now time.Time) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)

	CreateEnvelope(ctx context.Context, e Envelope) error
	GetEnvelope(ctx context.Context, id string) (Envelope, error)
	ListEnvelopes(ctx context.Context) ([]Envelope, error)
	DeleteEnvelope(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, t Transaction) error
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	Close() error
}
