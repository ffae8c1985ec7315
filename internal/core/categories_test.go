package core

import "testing"

func samplePeriod() Period {
	return Period{
		ID:             "p1",
		TotalBudget:    12000000,
		TotalSpent:     800000,
		TotalRemaining: 11200000,
		EnvelopeSummaries: []EnvelopeSummary{
			{EnvelopeID: "e1", EnvelopeName: "Groceries", Allocated: 5000000, Spent: 500000, Remaining: 4500000},
			{EnvelopeID: "e2", EnvelopeName: "Transport", Allocated: 2000000, Spent: 300000, Remaining: 1700000},
		},
	}
}

func TestProjectCategories(t *testing.T) {
	cats := ProjectCategories(samplePeriod())
	if len(cats) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(cats))
	}
	if cats[0].ID != TotalCategoryID || cats[0].Allocated != 12000000 || cats[0].Remaining != 11200000 {
		t.Fatalf("unexpected total entry: %+v", cats[0])
	}
	if cats[1].ID != "e1" || cats[1].Name != "Groceries" || cats[1].Spent != 500000 {
		t.Fatalf("unexpected first envelope entry: %+v", cats[1])
	}
	if cats[2].ID != "e2" {
		t.Fatalf("envelope order not preserved: %+v", cats[2])
	}
}

func TestApplyEnvelopeCreated(t *testing.T) {
	p := samplePeriod()
	merged := ApplyEnvelopeCreated(p, Envelope{ID: "e3", Name: "Fun"})

	if len(merged.EnvelopeSummaries) != 3 {
		t.Fatalf("expected appended summary, got %d entries", len(merged.EnvelopeSummaries))
	}
	added := merged.EnvelopeSummaries[2]
	if added.EnvelopeID != "e3" || added.EnvelopeName != "Fun" {
		t.Fatalf("unexpected appended summary: %+v", added)
	}
	if added.Allocated != 0 || added.Spent != 0 || added.Remaining != 0 {
		t.Fatalf("placeholder summary must be zeroed: %+v", added)
	}
	if merged.TotalBudget != p.TotalBudget || merged.TotalRemaining != p.TotalRemaining {
		t.Fatal("merge must not recompute period totals")
	}
	// Source snapshot untouched
	if len(p.EnvelopeSummaries) != 2 {
		t.Fatalf("input period mutated: %d entries", len(p.EnvelopeSummaries))
	}
}

func TestApplyEnvelopeCreatedIdempotent(t *testing.T) {
	p := samplePeriod()
	once := ApplyEnvelopeCreated(p, Envelope{ID: "e3", Name: "Fun"})
	twice := ApplyEnvelopeCreated(once, Envelope{ID: "e3", Name: "Fun"})

	count := 0
	for _, s := range twice.EnvelopeSummaries {
		if s.EnvelopeID == "e3" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one e3 summary, got %d", count)
	}
}

func TestApplyEnvelopeCreatedAfterServerSummary(t *testing.T) {
	// A creation event arriving after the server already returned the
	// summary must not shadow the server's figures with zeros.
	p := samplePeriod()
	merged := ApplyEnvelopeCreated(p, Envelope{ID: "e1", Name: "Groceries"})
	if len(merged.EnvelopeSummaries) != 2 {
		t.Fatalf("expected no new entry, got %d", len(merged.EnvelopeSummaries))
	}
	if merged.EnvelopeSummaries[0].Allocated != 5000000 {
		t.Fatalf("existing summary clobbered: %+v", merged.EnvelopeSummaries[0])
	}
}

func TestResolveSelected(t *testing.T) {
	cats := ProjectCategories(samplePeriod())

	if got := ResolveSelected(cats, "e2"); got.ID != "e2" {
		t.Fatalf("expected e2, got %+v", got)
	}
	// Unknown selection degrades to the total view, never errors
	if got := ResolveSelected(cats, "deleted-envelope"); got.ID != TotalCategoryID {
		t.Fatalf("expected total fallback, got %+v", got)
	}
	if got := ResolveSelected(nil, "anything"); got != (CategoryItem{}) {
		t.Fatalf("expected zero value for empty list, got %+v", got)
	}
}
