package services

import (
	"testing"
	"time"
)

func TestPaydayStart(t *testing.T) {
	cases := []struct {
		name  string
		year  int
		month time.Month
		want  time.Time
	}{
		{
			name: "weekday fifth stays put", // 2026-02-05 is a Thursday
			year: 2026, month: time.February,
			want: time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "saturday fifth pulls back to friday", // 2026-09-05 is a Saturday
			year: 2026, month: time.September,
			want: time.Date(2026, time.September, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday fifth pulls back to friday", // 2026-07-05 is a Sunday
			year: 2026, month: time.July,
			want: time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month zero normalizes to december prior year",
			year: 2026, month: time.January - 1,
			want: time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := paydayStart(tc.year, tc.month)
			if !got.Equal(tc.want) {
				t.Fatalf("paydayStart(%d, %d) = %s, want %s",
					tc.year, tc.month, got.Format(time.DateOnly), tc.want.Format(time.DateOnly))
			}
			if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
				t.Fatalf("period start %s falls on %s", got.Format(time.DateOnly), wd)
			}
		})
	}
}

func TestDefaultPeriodBounds(t *testing.T) {
	cases := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid period",
			now:       time.Date(2026, time.February, 20, 12, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC),
			// Next start is 2026-03-05 (a Thursday); the period ends the day before.
			wantEnd: time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "before this month's payday",
			// March 3 still belongs to the period started February 5.
			now:       time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "on the payday itself",
			now:       time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
			// 2026-04-05 is a Sunday, pulled back to Friday 2026-04-03.
			wantEnd: time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month-end day stays in the current month's period",
			// AddDate-style month math would turn Mar 31 into Mar 3 and
			// fall back a whole extra month.
			now:       time.Date(2026, time.March, 31, 23, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "early january falls back to december",
			// 2026-01-05 is a Monday, so Jan 3 belongs to the period
			// started 2025-12-05.
			now:       time.Date(2026, time.January, 3, 10, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "december end rolls into january start",
			now:       time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.December, 4, 0, 0, 0, 0, time.UTC), // 2026-12-05 is a Saturday
			wantEnd:   time.Date(2027, time.January, 4, 0, 0, 0, 0, time.UTC),  // 2027-01-05 is a Tuesday
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := defaultPeriodBounds(tc.now)
			if !start.Equal(tc.wantStart) {
				t.Errorf("start = %s, want %s", start.Format(time.DateOnly), tc.wantStart.Format(time.DateOnly))
			}
			if !end.Equal(tc.wantEnd) {
				t.Errorf("end = %s, want %s", end.Format(time.DateOnly), tc.wantEnd.Format(time.DateOnly))
			}
			if start.After(tc.now) || end.Before(start) {
				t.Errorf("bounds [%s, %s] do not cover %s",
					start.Format(time.DateOnly), end.Format(time.DateOnly), tc.now.Format(time.DateOnly))
			}
		})
	}
}
