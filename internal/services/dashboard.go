package services

import (
	"context"
	"fmt"
	"time"

	"envelopes/internal/core"
	"envelopes/internal/storage"
)

// DashboardView bundles everything one dashboard render needs: the period
// summary, the category list, the resolved selection, the daily
// remaining-balance series and the running-balance ledger. All slices are
// freshly derived; nothing aliases stored records.
type DashboardView struct {
	Period     core.Period
	Categories []core.CategoryItem
	Selected   core.CategoryItem
	Series     []core.ChartDataPoint
	Ledger     []core.LedgerEntry
}

// Dashboard derives the full dashboard view for one period and category
// selection. An unknown selection degrades to the total view. now is
// explicit so the view is a deterministic function of its inputs.
func (s *BudgetService) Dashboard(ctx context.Context, periodID, selectedCategory string, now time.Time) (DashboardView, error) {
	summary, err := s.PeriodSummary(ctx, periodID, now)
	if err != nil {
		return DashboardView{}, err
	}

	stored, err := s.repo.ListTransactions(ctx, storage.TransactionFilter{PeriodID: &periodID})
	if err != nil {
		return DashboardView{}, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(stored))
	for _, t := range stored {
		txs = append(txs, core.Transaction{
			ID:          t.ID,
			EnvelopeID:  t.EnvelopeID,
			Amount:      t.AmountMinor,
			Description: t.Description,
			Category:    t.Category,
			Date:        t.Date,
		})
	}

	categories := core.ProjectCategories(summary)
	selected := core.ResolveSelected(categories, selectedCategory)
	filtered := core.FilterByCategory(txs, selected)
	initial := core.InitialBalance(filtered, selected)

	return DashboardView{
		Period:     summary,
		Categories: categories,
		Selected:   selected,
		Series:     core.BuildDailySeries(filtered, selected, summary.StartDate, summary.EndDate, now),
		Ledger:     core.BuildLedger(filtered, initial),
	}, nil
}
