package sweep

import "github.com/pvolkov/remindly/internal/model"

// IsDue reports whether the reminder's moment has arrived. Pure function,
// no clock reads: the caller supplies today's date and the current
// wall-clock time in the same frame the reminder was stored in.
//
// A reminder dated before today is overdue and stays due until sent.
// One dated today is due once its time is at or before now (equality
// counts as due). One dated after today is not due.
func IsDue(r *model.Reminder, today model.Date, now model.ClockTime) bool {
	switch {
	case r.RemindDate.Before(today):
		return true
	case r.RemindDate.Equal(today):
		return !r.RemindTime.After(now)
	default:
		return false
	}
}
