package services

import "time"

// paydayStart returns the budgeting period start for the given month: the
// 5th, pulled back to Friday when it lands on a weekend. Household periods
// run payday to payday rather than calendar month to calendar month.
// time.Date normalizes out-of-range months, so callers can pass m-1 or m+1
// across year boundaries.
func paydayStart(year int, month time.Month) time.Time {
	start := time.Date(year, month, 5, 0, 0, 0, 0, time.UTC)
	switch start.Weekday() {
	case time.Saturday:
		start = start.AddDate(0, 0, -1)
	case time.Sunday:
		start = start.AddDate(0, 0, -2)
	}
	return start
}

// defaultPeriodBounds derives the period covering now: from the most
// recent payday start on or before now through the day before the next
// start. Early-month days before the payday still belong to the period
// started the month before. Candidate starts come from explicit
// year/month arithmetic rather than AddDate on now, which normalizes
// month-end days into the wrong month.
func defaultPeriodBounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	y, m, _ := now.Date()
	start = paydayStart(y, m)
	next := paydayStart(y, m+1)
	if start.After(now) {
		next = start
		start = paydayStart(y, m-1)
	}
	return start, next.AddDate(0, 0, -1)
}
