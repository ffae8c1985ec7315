package services

import (
	"time"

	"envelopes/internal/core"
	"envelopes/internal/storage"
)

// buildPeriodSummary folds a period's transaction log into the API-facing
// period view: per-envelope allocated/spent/remaining plus period totals.
// Positive amounts count as allocations, amounts <= 0 as spending (stored
// as the absolute value, so Spent is always non-negative). Transactions
// referencing an unknown envelope are skipped rather than failing the
// whole summary.
func buildPeriodSummary(p storage.Period, envelopes []storage.Envelope, txs []storage.Transaction, now time.Time) core.Period {
	summary := core.Period{
		ID:        p.ID,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		IsActive:  isActive(p, now),
	}

	stats := make(map[string]*core.EnvelopeSummary, len(envelopes))
	for _, env := range envelopes {
		stats[env.ID] = &core.EnvelopeSummary{
			EnvelopeID:   env.ID,
			EnvelopeName: env.Name,
		}
	}

	for _, t := range txs {
		stat, ok := stats[t.EnvelopeID]
		if !ok {
			continue
		}
		if t.AmountMinor > 0 {
			stat.Allocated += t.AmountMinor
			summary.TotalBudget += t.AmountMinor
		} else {
			stat.Spent += -t.AmountMinor
			summary.TotalSpent += -t.AmountMinor
		}
	}

	summary.EnvelopeSummaries = make([]core.EnvelopeSummary, 0, len(envelopes))
	for _, env := range envelopes {
		stat := stats[env.ID]
		stat.Remaining = stat.Allocated - stat.Spent
		summary.EnvelopeSummaries = append(summary.EnvelopeSummaries, *stat)
	}

	summary.TotalRemaining = summary.TotalBudget - summary.TotalSpent
	summary.ProjectedEndingBalance = projectEndingBalance(summary, now)

	return summary
}

func isActive(p storage.Period, now time.Time) bool {
	day := now.UTC().Truncate(24 * time.Hour)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// projectEndingBalance extrapolates the average daily spend over the
// elapsed part of the period through its end. Outside the period, or on
// its first day, the current remaining balance is the projection.
func projectEndingBalance(s core.Period, now time.Time) int64 {
	today := now.UTC().Truncate(24 * time.Hour)
	if today.Before(s.StartDate) || today.After(s.EndDate) {
		return s.TotalRemaining
	}
	elapsed := int64(today.Sub(s.StartDate)/(24*time.Hour)) + 1
	left := int64(s.EndDate.Sub(today) / (24 * time.Hour))
	if elapsed <= 0 {
		return s.TotalRemaining
	}
	dailySpend := s.TotalSpent / elapsed
	return s.TotalRemaining - dailySpend*left
}
