package sweep

import (
	"testing"
	"time"

	"github.com/pvolkov/remindly/internal/model"
)

func TestIsDue(t *testing.T) {
	t.Parallel()

	today := model.NewDate(2025, time.March, 15)
	now := model.NewClockTime(12, 30, 0)

	cases := []struct {
		name string
		date model.Date
		time model.ClockTime
		want bool
	}{
		{"yesterday is overdue", today.AddDays(-1), model.NewClockTime(23, 59, 59), true},
		{"last year is overdue", model.NewDate(2024, time.December, 31), model.NewClockTime(0, 0, 0), true},
		{"today earlier time", today, model.NewClockTime(12, 29, 59), true},
		{"today exact time counts as due", today, now, true},
		{"today minute later", today, model.NewClockTime(12, 31, 0), false},
		{"today midnight", today, model.NewClockTime(0, 0, 0), true},
		{"tomorrow with earlier time", today.AddDays(1), model.NewClockTime(0, 0, 0), false},
		{"next month", model.NewDate(2025, time.April, 1), model.NewClockTime(12, 30, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := &model.Reminder{RemindDate: tc.date, RemindTime: tc.time}
			if got := IsDue(r, today, now); got != tc.want {
				t.Fatalf("IsDue(%s %s) = %v, want %v", tc.date, tc.time, got, tc.want)
			}
		})
	}
}

func TestIsDueYearAndMonthBoundaries(t *testing.T) {
	t.Parallel()

	// Jan 1 just after midnight: Dec 31 of the previous year is overdue.
	today := model.NewDate(2026, time.January, 1)
	now := model.NewClockTime(0, 0, 30)

	overdue := &model.Reminder{
		RemindDate: model.NewDate(2025, time.December, 31),
		RemindTime: model.NewClockTime(23, 59, 0),
	}
	if !IsDue(overdue, today, now) {
		t.Fatalf("expected reminder from previous year to be due")
	}

	future := &model.Reminder{
		RemindDate: model.NewDate(2026, time.February, 1),
		RemindTime: model.NewClockTime(0, 0, 0),
	}
	if IsDue(future, today, now) {
		t.Fatalf("expected next-month reminder to not be due")
	}
}
