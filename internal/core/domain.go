package core

import (
	"errors"
	"time"
)

// TotalCategoryID identifies the synthetic category aggregating the whole period.
const TotalCategoryID = "total"

type (
	// Period aggregates envelope activity over a bounded budgeting interval.
	// Start and end dates are inclusive calendar days. All monetary fields are
	// signed integers in minor currency units (para, 1/100 of the display unit).
	Period struct {
		ID                     string
		StartDate              time.Time
		EndDate                time.Time
		IsActive               bool
		TotalBudget            int64
		TotalSpent             int64
		TotalRemaining         int64
		ProjectedEndingBalance int64
		EnvelopeSummaries      []EnvelopeSummary
	}

	// EnvelopeSummary is a snapshot of one envelope's activity within a period.
	// Spent is non-negative; Remaining = Allocated - Spent.
	EnvelopeSummary struct {
		EnvelopeID   string
		EnvelopeName string
		Allocated    int64
		Spent        int64
		Remaining    int64
	}

	// Envelope is a named budget category.
	Envelope struct {
		ID   string
		Name string
	}

	// Transaction is a single financial movement against an envelope.
	// Amount is signed: positive allocates into the envelope, negative spends
	// from it. Date stays the stored ISO 8601 string so that calendar-day
	// bucketing remains a lexical operation on the recorded value.
	Transaction struct {
		ID          string
		EnvelopeID  string
		Amount      int64
		Description string
		Category    string
		Date        string
	}

	// CategoryItem is a uniform sidebar view over either the whole period
	// (ID == TotalCategoryID) or a single envelope summary.
	CategoryItem struct {
		ID        string
		Name      string
		Allocated int64
		Spent     int64
		Remaining int64
	}

	// ChartDataPoint is the cumulative remaining balance at the end of one day.
	ChartDataPoint struct {
		Date      time.Time
		Remaining int64
	}

	// LedgerEntry is a transaction annotated with the balance immediately
	// after applying it.
	LedgerEntry struct {
		Transaction
		RunningBalance int64
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)
