package core

import (
	"testing"
	"time"
)

func TestBuildLedgerRunningBalance(t *testing.T) {
	txs := []Transaction{
		{ID: "t2", EnvelopeID: "e1", Amount: -200000, Date: "2026-02-20T18:30:00Z"},
		{ID: "t1", EnvelopeID: "e1", Amount: -500000, Date: "2026-02-08T10:00:00Z"},
		{ID: "t3", EnvelopeID: "e2", Amount: -100000, Date: "2026-02-23T08:15:00Z"},
	}

	entries := BuildLedger(txs, 12000000)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantOrder := []string{"t1", "t2", "t3"}
	wantBalance := []int64{11500000, 11300000, 11200000}
	for i, e := range entries {
		if e.ID != wantOrder[i] {
			t.Fatalf("entry %d = %s, want %s", i, e.ID, wantOrder[i])
		}
		if e.RunningBalance != wantBalance[i] {
			t.Fatalf("entry %s balance = %d, want %d", e.ID, e.RunningBalance, wantBalance[i])
		}
	}
}

func TestBuildLedgerEmpty(t *testing.T) {
	if entries := BuildLedger(nil, 5000); len(entries) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(entries))
	}
}

func TestBuildLedgerStableTies(t *testing.T) {
	txs := []Transaction{
		{ID: "first", Amount: -10, Date: "2026-02-08T10:00:00Z"},
		{ID: "second", Amount: -20, Date: "2026-02-08T10:00:00Z"},
		{ID: "third", Amount: -30, Date: "2026-02-08T10:00:00Z"},
	}
	entries := BuildLedger(txs, 0)
	for i, want := range []string{"first", "second", "third"} {
		if entries[i].ID != want {
			t.Fatalf("tie order broken at %d: got %s, want %s", i, entries[i].ID, want)
		}
	}
}

func TestBuildLedgerMalformedDatesSortFirst(t *testing.T) {
	txs := []Transaction{
		{ID: "dated", Amount: -100, Date: "2026-02-10T09:00:00Z"},
		{ID: "dateless", Amount: -50, Date: ""},
		{ID: "garbage", Amount: -25, Date: "not-a-date"},
	}
	entries := BuildLedger(txs, 1000)
	if entries[0].ID != "dateless" || entries[1].ID != "garbage" {
		t.Fatalf("malformed dates must sort earliest, got %s, %s", entries[0].ID, entries[1].ID)
	}
	if entries[2].ID != "dated" || entries[2].RunningBalance != 825 {
		t.Fatalf("unexpected final entry: %+v", entries[2])
	}
}

func TestBuildLedgerAcceptsDateOnly(t *testing.T) {
	txs := []Transaction{
		{ID: "b", Amount: -1, Date: "2026-02-09"},
		{ID: "a", Amount: -1, Date: "2026-02-08"},
	}
	entries := BuildLedger(txs, 0)
	if entries[0].ID != "a" {
		t.Fatalf("date-only strings must still order chronologically, got %s first", entries[0].ID)
	}
}

// The ledger's final balance must agree with the last chart point when both
// views are fed the same filtered set and the same initial balance.
func TestLedgerMatchesSeriesTail(t *testing.T) {
	cat := CategoryItem{ID: TotalCategoryID, Allocated: 12000000}
	txs := []Transaction{
		{ID: "t1", EnvelopeID: "e1", Amount: -500000, Date: "2026-02-08T10:00:00Z"},
		{ID: "t2", EnvelopeID: "e1", Amount: 250000, Date: "2026-02-12T09:00:00Z"},
		{ID: "t3", EnvelopeID: "e2", Amount: -200000, Date: "2026-02-20T18:30:00Z"},
		{ID: "t4", EnvelopeID: "e2", Amount: -100000, Date: "2026-02-23T08:15:00Z"},
	}
	start := day(2026, time.February, 5)
	end := day(2026, time.March, 5)
	today := day(2026, time.February, 23)

	initial := InitialBalance(txs, cat)
	series := BuildDailySeries(txs, cat, start, end, today)
	ledger := BuildLedger(txs, initial)

	lastPoint := series[len(series)-1].Remaining
	lastEntry := ledger[len(ledger)-1].RunningBalance
	if lastPoint != lastEntry {
		t.Fatalf("series tail %d != ledger tail %d", lastPoint, lastEntry)
	}
}
