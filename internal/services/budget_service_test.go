package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"envelopes/internal/core"
	"envelopes/internal/storage"
	"envelopes/internal/storage/memory"
)

type recordingEvents struct {
	published []string
	fail      bool
}

func (r *recordingEvents) PublishTransactionRecorded(_ context.Context, id string) error {
	if r.fail {
		return errors.New("broker down")
	}
	r.published = append(r.published, id)
	return nil
}

func newTestService() (*BudgetService, *recordingEvents) {
	events := &recordingEvents{}
	return NewBudgetService(memory.New(), events), events
}

func TestCurrentPeriodAutoCreates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, time.February, 20, 10, 0, 0, 0, time.UTC)

	p, err := svc.CurrentPeriod(ctx, now)
	if err != nil {
		t.Fatalf("current period: %v", err)
	}
	if !p.IsActive {
		t.Error("auto-created period must be active")
	}
	if !p.StartDate.Equal(time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %s, want 2026-02-05", p.StartDate.Format(time.DateOnly))
	}

	// The second call must reuse the stored period, not create another.
	again, err := svc.CurrentPeriod(ctx, now)
	if err != nil {
		t.Fatalf("second current period: %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("expected same period id, got %s and %s", p.ID, again.ID)
	}
	periods, _ := svc.ListPeriods(ctx)
	if len(periods) != 1 {
		t.Errorf("expected 1 stored period, got %d", len(periods))
	}
}

func TestCreateEnvelopeValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateEnvelope(ctx, "  "); !errors.Is(err, ErrEnvelopeNameRequired) {
		t.Fatalf("expected ErrEnvelopeNameRequired, got %v", err)
	}
	if _, err := svc.CreateEnvelope(ctx, "Groceries"); err != nil {
		t.Fatalf("create envelope: %v", err)
	}
	if _, err := svc.CreateEnvelope(ctx, "Groceries"); !errors.Is(err, storage.ErrDuplicateEnvelope) {
		t.Fatalf("expected ErrDuplicateEnvelope, got %v", err)
	}
}

func TestRecordTransaction(t *testing.T) {
	svc, events := newTestService()
	ctx := context.Background()
	now := time.Date(2026, time.February, 20, 10, 0, 0, 0, time.UTC)

	p, err := svc.CreatePeriod(ctx, nil, nil, now)
	if err != nil {
		t.Fatal(err)
	}
	env, err := svc.CreateEnvelope(ctx, "Groceries")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.RecordTransaction(ctx, storage.Transaction{
		PeriodID:    p.ID,
		EnvelopeID:  "missing",
		AmountMinor: -100,
	})
	if !errors.Is(err, ErrUnknownEnvelope) {
		t.Fatalf("expected ErrUnknownEnvelope, got %v", err)
	}

	tx, err := svc.RecordTransaction(ctx, storage.Transaction{
		PeriodID:    p.ID,
		EnvelopeID:  env.ID,
		AmountMinor: -12050,
		Description: "market run",
		Date:        "2026-02-20T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("record transaction: %v", err)
	}
	if tx.ID == "" {
		t.Error("transaction id not assigned")
	}
	if len(events.published) != 1 || events.published[0] != tx.ID {
		t.Errorf("expected published event for %s, got %v", tx.ID, events.published)
	}
}

func TestRecordTransactionSurvivesPublishFailure(t *testing.T) {
	svc, events := newTestService()
	events.fail = true
	ctx := context.Background()
	now := time.Date(2026, time.February, 20, 10, 0, 0, 0, time.UTC)

	p, _ := svc.CreatePeriod(ctx, nil, nil, now)
	env, _ := svc.CreateEnvelope(ctx, "Groceries")

	tx, err := svc.RecordTransaction(ctx, storage.Transaction{
		PeriodID:    p.ID,
		EnvelopeID:  env.ID,
		AmountMinor: -500,
		Date:        "2026-02-20T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("record with failing broker: %v", err)
	}
	if _, err := svc.GetTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("transaction not stored despite broker failure: %v", err)
	}
}

// End-to-end dashboard run over the worked month: the chart's final point
// and the ledger's final balance agree.
func TestDashboardWorkedScenario(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	start := time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, time.February, 23, 14, 0, 0, 0, time.UTC)

	p, err := svc.CreatePeriod(ctx, &start, &end, today)
	if err != nil {
		t.Fatal(err)
	}
	env, err := svc.CreateEnvelope(ctx, "Household")
	if err != nil {
		t.Fatal(err)
	}

	seed := []storage.Transaction{
		{PeriodID: p.ID, EnvelopeID: env.ID, AmountMinor: 12000000, Date: "2026-02-05T00:00:00Z"},
		{PeriodID: p.ID, EnvelopeID: env.ID, AmountMinor: -500000, Date: "2026-02-08T10:00:00Z"},
		{PeriodID: p.ID, EnvelopeID: env.ID, AmountMinor: -200000, Date: "2026-02-20T18:30:00Z"},
		{PeriodID: p.ID, EnvelopeID: env.ID, AmountMinor: -100000, Date: "2026-02-23T08:15:00Z"},
	}
	for _, tx := range seed {
		if _, err := svc.RecordTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	view, err := svc.Dashboard(ctx, p.ID, core.TotalCategoryID, today)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if view.Selected.ID != core.TotalCategoryID {
		t.Fatalf("selected = %+v, want total", view.Selected)
	}
	if view.Period.TotalBudget != 12000000 || view.Period.TotalRemaining != 11200000 {
		t.Fatalf("unexpected totals: %+v", view.Period)
	}
	if len(view.Categories) != 2 {
		t.Fatalf("expected total + 1 envelope, got %d categories", len(view.Categories))
	}

	if len(view.Series) == 0 || len(view.Ledger) == 0 {
		t.Fatal("series and ledger must not be empty")
	}
	lastPoint := view.Series[len(view.Series)-1]
	lastEntry := view.Ledger[len(view.Ledger)-1]
	if lastPoint.Remaining != 11200000 {
		t.Errorf("series tail = %d, want 11200000", lastPoint.Remaining)
	}
	if lastEntry.RunningBalance != lastPoint.Remaining {
		t.Errorf("ledger tail %d != series tail %d", lastEntry.RunningBalance, lastPoint.Remaining)
	}

	// Selecting a nonexistent category degrades to the total view.
	fallback, err := svc.Dashboard(ctx, p.ID, "nope", today)
	if err != nil {
		t.Fatalf("dashboard fallback: %v", err)
	}
	if fallback.Selected.ID != core.TotalCategoryID {
		t.Errorf("fallback selected = %+v, want total", fallback.Selected)
	}
}
