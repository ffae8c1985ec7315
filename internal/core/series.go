package core

import (
	"strings"
	"time"
)

// dayBucket accumulates one calendar day's activity: allocations (positive
// amounts) and spending (absolute values of amounts <= 0) are summed
// separately.
type dayBucket struct {
	allocated int64
	spent     int64
}

// FilterByCategory returns the transactions belonging to the selected
// category. The total category passes every transaction; any other id
// matches on envelope. The input slice is never modified.
func FilterByCategory(txs []Transaction, cat CategoryItem) []Transaction {
	if cat.ID == TotalCategoryID {
		out := make([]Transaction, len(txs))
		copy(out, txs)
		return out
	}
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.EnvelopeID == cat.ID {
			out = append(out, t)
		}
	}
	return out
}

// InitialBalance computes the balance that predates the transaction log:
// the category's allocated total minus every allocation recorded in the
// filtered set. The allocated total already reflects those allocations, so
// subtracting them leaves the baseline carried into the period, which is
// the seed for both the daily series and the ledger running balance.
func InitialBalance(txs []Transaction, cat CategoryItem) int64 {
	balance := cat.Allocated
	for _, t := range txs {
		if t.Amount > 0 {
			balance -= t.Amount
		}
	}
	return balance
}

// dayKey extracts the calendar-day bucket key from a stored date string:
// the prefix before the first time separator, taken verbatim. Bucketing is
// deliberately lexical, with no timezone conversion; a malformed date
// yields a key that never matches a walked day and so lands in no bucket.
func dayKey(date string) string {
	if i := strings.IndexByte(date, 'T'); i >= 0 {
		return date[:i]
	}
	return date
}

// utcMidnight normalizes a timestamp to midnight UTC of its calendar day.
func utcMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildDailySeries produces the chartable remaining-balance series for the
// selected category. It buckets the category's transactions by calendar
// day, then walks each day from the period start through min(today, end)
// inclusive, carrying the balance forward so that days without activity
// still emit a (flat) point. A walk range that ends before it starts
// yields an empty series. txs must already be filtered via
// FilterByCategory for the same category.
func BuildDailySeries(txs []Transaction, cat CategoryItem, start, end, today time.Time) []ChartDataPoint {
	buckets := make(map[string]dayBucket)
	for _, t := range txs {
		key := dayKey(t.Date)
		b := buckets[key]
		if t.Amount > 0 {
			b.allocated += t.Amount
		} else {
			b.spent += -t.Amount
		}
		buckets[key] = b
	}

	cursor := utcMidnight(start)
	last := utcMidnight(end)
	if t := utcMidnight(today); t.Before(last) {
		last = t
	}
	if last.Before(cursor) {
		return nil
	}

	cumulativeAllocated := InitialBalance(txs, cat)
	var cumulativeSpent int64

	var series []ChartDataPoint
	for !cursor.After(last) {
		b := buckets[cursor.Format(time.DateOnly)]
		cumulativeAllocated += b.allocated
		cumulativeSpent += b.spent
		series = append(series, ChartDataPoint{
			Date:      cursor,
			Remaining: cumulativeAllocated - cumulativeSpent,
		})
		cursor = cursor.AddDate(0, 0, 1)
	}
	return series
}
