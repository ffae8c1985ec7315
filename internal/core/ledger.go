package core

import (
	"sort"
	"time"
)

// ledgerSortKey parses a transaction date for chronological ordering. A
// missing or unparseable date maps to the zero time, which sorts before
// every real timestamp, so one bad record cannot corrupt the rest of the
// ledger.
func ledgerSortKey(date string) time.Time {
	if date == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t
	}
	if t, err := time.Parse(time.DateOnly, date); err == nil {
		return t
	}
	return time.Time{}
}

// BuildLedger orders transactions chronologically (stable, so ties keep
// their original relative order) and folds each signed amount into a
// running balance seeded with initialBalance. The seed must be the
// InitialBalance value for the same filtered set; the final entry's
// balance then matches the last point of BuildDailySeries for that
// category. Zero transactions yield an empty ledger.
func BuildLedger(txs []Transaction, initialBalance int64) []LedgerEntry {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ledgerSortKey(sorted[i].Date).Before(ledgerSortKey(sorted[j].Date))
	})

	balance := initialBalance
	entries := make([]LedgerEntry, 0, len(sorted))
	for _, t := range sorted {
		balance += t.Amount
		entries = append(entries, LedgerEntry{Transaction: t, RunningBalance: balance})
	}
	return entries
}
