package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"envelopes/internal/core"
	"envelopes/internal/services"
	"envelopes/internal/storage"
)

type periodJSON struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type envelopeJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type transactionJSON struct {
	ID          string `json:"id"`
	PeriodID    string `json:"period_id"`
	EnvelopeID  string `json:"envelope_id"`
	AmountMinor int64  `json:"amount_minor"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date"`
}

type envelopeSummaryJSON struct {
	EnvelopeID     string `json:"envelope_id"`
	EnvelopeName   string `json:"envelope_name"`
	AllocatedMinor int64  `json:"allocated_minor"`
	Allocated      string `json:"allocated"`
	SpentMinor     int64  `json:"spent_minor"`
	Spent          string `json:"spent"`
	RemainingMinor int64  `json:"remaining_minor"`
	Remaining      string `json:"remaining"`
}

type periodSummaryJSON struct {
	ID                          string                `json:"id"`
	StartDate                   string                `json:"start_date"`
	EndDate                     string                `json:"end_date"`
	IsActive                    bool                  `json:"is_active"`
	TotalBudgetMinor            int64                 `json:"total_budget_minor"`
	TotalBudget                 string                `json:"total_budget"`
	TotalSpentMinor             int64                 `json:"total_spent_minor"`
	TotalSpent                  string                `json:"total_spent"`
	TotalRemainingMinor         int64                 `json:"total_remaining_minor"`
	TotalRemaining              string                `json:"total_remaining"`
	ProjectedEndingBalanceMinor int64                 `json:"projected_ending_balance_minor"`
	ProjectedEndingBalance      string                `json:"projected_ending_balance"`
	Envelopes                   []envelopeSummaryJSON `json:"envelopes"`
}

func toPeriodJSON(p storage.Period) periodJSON {
	return periodJSON{
		ID:        p.ID,
		StartDate: p.StartDate.Format(time.DateOnly),
		EndDate:   p.EndDate.Format(time.DateOnly),
	}
}

func toTransactionJSON(t storage.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		PeriodID:    t.PeriodID,
		EnvelopeID:  t.EnvelopeID,
		AmountMinor: t.AmountMinor,
		Amount:      core.FormatMinor(t.AmountMinor),
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
	}
}

func toPeriodSummaryJSON(p core.Period) periodSummaryJSON {
	out := periodSummaryJSON{
		ID:                          p.ID,
		StartDate:                   p.StartDate.Format(time.DateOnly),
		EndDate:                     p.EndDate.Format(time.DateOnly),
		IsActive:                    p.IsActive,
		TotalBudgetMinor:            p.TotalBudget,
		TotalBudget:                 core.FormatMinor(p.TotalBudget),
		TotalSpentMinor:             p.TotalSpent,
		TotalSpent:                  core.FormatMinor(p.TotalSpent),
		TotalRemainingMinor:         p.TotalRemaining,
		TotalRemaining:              core.FormatMinor(p.TotalRemaining),
		ProjectedEndingBalanceMinor: p.ProjectedEndingBalance,
		ProjectedEndingBalance:      core.FormatMinor(p.ProjectedEndingBalance),
		Envelopes:                   make([]envelopeSummaryJSON, 0, len(p.EnvelopeSummaries)),
	}
	for _, e := range p.EnvelopeSummaries {
		out.Envelopes = append(out.Envelopes, envelopeSummaryJSON{
			EnvelopeID:     e.EnvelopeID,
			EnvelopeName:   e.EnvelopeName,
			AllocatedMinor: e.Allocated,
			Allocated:      core.FormatMinor(e.Allocated),
			SpentMinor:     e.Spent,
			Spent:          core.FormatMinor(e.Spent),
			RemainingMinor: e.Remaining,
			Remaining:      core.FormatMinor(e.Remaining),
		})
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.startedAt).String(),
	})
}

// handleReady verifies that storage answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "ok"}
	status := "ready"
	httpStatus := http.StatusOK

	if _, err := s.budget.ListEnvelopes(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// handleMetrics serves counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	totalRequests := atomic.LoadInt64(&s.appMetrics.totalRequests)
	totalTransactions := atomic.LoadInt64(&s.appMetrics.totalTransactions)
	cacheHits := atomic.LoadInt64(&s.appMetrics.cacheHits)
	cacheMisses := atomic.LoadInt64(&s.appMetrics.cacheMisses)
	rateLimitHits := atomic.LoadInt64(&s.securityMetrics.rateLimitHits)
	suspicious := atomic.LoadInt64(&s.securityMetrics.suspiciousRequests)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", totalRequests)

	fmt.Fprintf(w, "# HELP transactions_total Total number of transactions recorded\n")
	fmt.Fprintf(w, "# TYPE transactions_total counter\n")
	fmt.Fprintf(w, "transactions_total %d\n\n", totalTransactions)

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"dashboard\"} %d\n", s.dashboardCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"summary\"} %d\n\n", s.summaryCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", suspicious)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.activeClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.startedAt).Seconds())
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.budget.ListPeriods(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List periods error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list periods")
		return
	}

	out := make([]periodJSON, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var start, end *time.Time
	if req.StartDate != "" {
		t, err := time.ParseInLocation(time.DateOnly, req.StartDate, time.UTC)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "start_date must be YYYY-MM-DD")
			return
		}
		start = &t
	}
	if req.EndDate != "" {
		t, err := time.ParseInLocation(time.DateOnly, req.EndDate, time.UTC)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "end_date must be YYYY-MM-DD")
			return
		}
		end = &t
	}

	p, err := s.budget.CreatePeriod(r.Context(), start, end, time.Now().UTC())
	if err != nil {
		if errors.Is(err, services.ErrInvalidPeriodRange) {
			writeError(w, http.StatusUnprocessableEntity, "end_date must not precede start_date")
			return
		}
		slog.ErrorContext(r.Context(), "Create period error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create period")
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toPeriodJSON(p))
}

func (s *Server) handleCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.budget.CurrentPeriod(r.Context(), time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Current period error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve current period")
		return
	}
	writeJSON(w, http.StatusOK, toPeriodSummaryJSON(p))
}

func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if p, found := s.summaryCache.Get(id); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, toPeriodSummaryJSON(p))
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	p, err := s.budget.PeriodSummary(r.Context(), id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "period not found")
			return
		}
		slog.ErrorContext(r.Context(), "Period summary error", "error", err, "period_id", id)
		writeError(w, http.StatusInternalServerError, "failed to build period summary")
		return
	}

	s.summaryCache.Set(id, p)
	writeJSON(w, http.StatusOK, toPeriodSummaryJSON(p))
}

func (s *Server) handleListEnvelopes(w http.ResponseWriter, r *http.Request) {
	envelopes, err := s.budget.ListEnvelopes(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List envelopes error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list envelopes")
		return
	}

	out := make([]envelopeJSON, 0, len(envelopes))
	for _, e := range envelopes {
		out = append(out, envelopeJSON{ID: e.ID, Name: e.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	env, err := s.budget.CreateEnvelope(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEnvelopeNameRequired):
			writeError(w, http.StatusUnprocessableEntity, "name is required")
		case errors.Is(err, storage.ErrDuplicateEnvelope):
			writeError(w, http.StatusConflict, "envelope name already exists")
		default:
			slog.ErrorContext(r.Context(), "Create envelope error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create envelope")
		}
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, envelopeJSON{ID: env.ID, Name: env.Name})
}

func (s *Server) handleDeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.budget.DeleteEnvelope(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "envelope not found")
			return
		}
		if errors.Is(err, storage.ErrEnvelopeInUse) {
			writeError(w, http.StatusConflict, "envelope has transactions")
			return
		}
		slog.ErrorContext(r.Context(), "Delete envelope error", "error", err, "envelope_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete envelope")
		return
	}

	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter storage.TransactionFilter
	if v := strings.TrimSpace(r.URL.Query().Get("period_id")); v != "" {
		filter.PeriodID = &v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("envelope_id")); v != "" {
		filter.EnvelopeID = &v
	}

	transactions, err := s.budget.ListTransactions(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionJSON, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PeriodID    string `json:"period_id"`
		EnvelopeID  string `json:"envelope_id"`
		AmountMinor *int64 `json:"amount_minor"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Date        string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var amountMinor int64
	switch {
	case req.AmountMinor != nil:
		amountMinor = *req.AmountMinor
	case req.Amount != "":
		// Decimal entry. The parser takes unsigned values, so the sign is
		// peeled off first.
		raw := strings.TrimSpace(req.Amount)
		negative := strings.HasPrefix(raw, "-")
		parsed, err := core.ParseDecimalToMinor(strings.TrimPrefix(raw, "-"))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		amountMinor = parsed
		if negative {
			amountMinor = -amountMinor
		}
	default:
		writeError(w, http.StatusUnprocessableEntity, "amount_minor or amount is required")
		return
	}

	tx, err := s.budget.RecordTransaction(r.Context(), storage.Transaction{
		PeriodID:    req.PeriodID,
		EnvelopeID:  req.EnvelopeID,
		AmountMinor: amountMinor,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Date:        strings.TrimSpace(req.Date),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownEnvelope):
			writeError(w, http.StatusUnprocessableEntity, "unknown envelope")
		case errors.Is(err, services.ErrUnknownPeriod):
			writeError(w, http.StatusUnprocessableEntity, "unknown period")
		default:
			slog.ErrorContext(r.Context(), "Record transaction error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to record transaction")
		}
		return
	}

	atomic.AddInt64(&s.appMetrics.totalTransactions, 1)
	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tx, err := s.budget.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Get transaction error", "error", err, "transaction_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}
