package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"envelopes/internal/core"
	"envelopes/internal/services"
	"envelopes/internal/storage"
)

type categoryJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AllocatedMinor int64  `json:"allocated_minor"`
	Allocated      string `json:"allocated"`
	SpentMinor     int64  `json:"spent_minor"`
	Spent          string `json:"spent"`
	RemainingMinor int64  `json:"remaining_minor"`
	Remaining      string `json:"remaining"`
}

type seriesPointJSON struct {
	Date           string `json:"date"`
	RemainingMinor int64  `json:"remaining_minor"`
	Remaining      string `json:"remaining"`
}

type ledgerEntryJSON struct {
	ID                  string `json:"id"`
	EnvelopeID          string `json:"envelope_id"`
	Date                string `json:"date"`
	Description         string `json:"description,omitempty"`
	AmountMinor         int64  `json:"amount_minor"`
	Amount              string `json:"amount"`
	RunningBalanceMinor int64  `json:"running_balance_minor"`
	RunningBalance      string `json:"running_balance"`
}

func toCategoryJSON(c core.CategoryItem) categoryJSON {
	return categoryJSON{
		ID:             c.ID,
		Name:           c.Name,
		AllocatedMinor: c.Allocated,
		Allocated:      core.FormatMinor(c.Allocated),
		SpentMinor:     c.Spent,
		Spent:          core.FormatMinor(c.Spent),
		RemainingMinor: c.Remaining,
		Remaining:      core.FormatMinor(c.Remaining),
	}
}

// dashboardParams resolves the period and category query parameters. An
// absent period falls back to the current one.
func (s *Server) dashboardParams(r *http.Request) (periodID, category string, err error) {
	periodID = strings.TrimSpace(r.URL.Query().Get("period_id"))
	category = strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		category = core.TotalCategoryID
	}

	if periodID == "" {
		p, cerr := s.budget.CurrentPeriod(r.Context(), time.Now().UTC())
		if cerr != nil {
			return "", "", cerr
		}
		periodID = p.ID
	}
	return periodID, category, nil
}

func (s *Server) dashboardView(ctx context.Context, periodID, category string) (services.DashboardView, error) {
	key := periodID + "|" + category
	if view, found := s.dashboardCache.Get(key); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return view, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	view, err := s.budget.Dashboard(ctx, periodID, category, time.Now().UTC())
	if err != nil {
		return services.DashboardView{}, err
	}

	s.dashboardCache.Set(key, view)
	return view, nil
}

func (s *Server) serveDashboard(w http.ResponseWriter, r *http.Request, respond func(view services.DashboardView) any) {
	periodID, category, err := s.dashboardParams(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard period resolution error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve period")
		return
	}

	view, err := s.dashboardView(r.Context(), periodID, category)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "period not found")
			return
		}
		slog.ErrorContext(r.Context(), "Dashboard view error", "error", err, "period_id", periodID, "category", category)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard view")
		return
	}

	writeJSON(w, http.StatusOK, respond(view))
}

func (s *Server) handleDashboardCategories(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard(w, r, func(view services.DashboardView) any {
		categories := make([]categoryJSON, 0, len(view.Categories))
		for _, c := range view.Categories {
			categories = append(categories, toCategoryJSON(c))
		}
		return struct {
			PeriodID   string         `json:"period_id"`
			Selected   categoryJSON   `json:"selected"`
			Categories []categoryJSON `json:"categories"`
		}{
			PeriodID:   view.Period.ID,
			Selected:   toCategoryJSON(view.Selected),
			Categories: categories,
		}
	})
}

func (s *Server) handleDashboardSeries(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard(w, r, func(view services.DashboardView) any {
		series := make([]seriesPointJSON, 0, len(view.Series))
		for _, p := range view.Series {
			series = append(series, seriesPointJSON{
				Date:           p.Date.Format(time.DateOnly),
				RemainingMinor: p.Remaining,
				Remaining:      core.FormatMinor(p.Remaining),
			})
		}
		return struct {
			PeriodID string            `json:"period_id"`
			Category string            `json:"category"`
			Series   []seriesPointJSON `json:"series"`
		}{
			PeriodID: view.Period.ID,
			Category: view.Selected.ID,
			Series:   series,
		}
	})
}

func (s *Server) handleDashboardLedger(w http.ResponseWriter, r *http.Request) {
	s.serveDashboard(w, r, func(view services.DashboardView) any {
		entries := make([]ledgerEntryJSON, 0, len(view.Ledger))
		for _, e := range view.Ledger {
			entries = append(entries, ledgerEntryJSON{
				ID:                  e.ID,
				EnvelopeID:          e.EnvelopeID,
				Date:                e.Date,
				Description:         e.Description,
				AmountMinor:         e.Amount,
				Amount:              core.FormatMinor(e.Amount),
				RunningBalanceMinor: e.RunningBalance,
				RunningBalance:      core.FormatMinor(e.RunningBalance),
			})
		}
		return struct {
			PeriodID string            `json:"period_id"`
			Category string            `json:"category"`
			Entries  []ledgerEntryJSON `json:"entries"`
		}{
			PeriodID: view.Period.ID,
			Category: view.Selected.ID,
			Entries:  entries,
		}
	})
}
