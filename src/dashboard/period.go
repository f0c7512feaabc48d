// Package dashboard computes the aggregated dashboard payload: period-bounded
// totals, period-over-period changes, per-category breakdowns and budget
// utilization.
package dashboard

import "time"

const (
	RangeMonthly = "monthly"
	RangeYearly  = "yearly"
	RangeCustom  = "custom"
)

// Window is a date range, inclusive on both ends: End is the last instant of
// the period, so a transaction dated exactly on either boundary is inside.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// RangeQuery is the caller's reporting range selection. From/To only matter
// for RangeCustom.
type RangeQuery struct {
	Range string
	From  time.Time
	To    time.Time
}

func MonthWindow(anchor time.Time) Window {
	start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

func YearWindow(anchor time.Time) Window {
	start := time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, anchor.Location())
	return Window{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}
}

// WeekWindow starts on Sunday.
func WeekWindow(anchor time.Time) Window {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return Window{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Nanosecond)}
}

// AuxWindows are the fixed windows budgets are measured against, independent
// of the range the user selected for the rest of the dashboard.
type AuxWindows struct {
	Week  Window
	Month Window
	Year  Window
}

func Auxiliary(now time.Time) AuxWindows {
	return AuxWindows{
		Week:  WeekWindow(now),
		Month: MonthWindow(now),
		Year:  YearWindow(now),
	}
}

// WindowForPeriod picks the auxiliary window matching a budget period.
// Unrecognized periods fall back to the month window.
func WindowForPeriod(period string, aux AuxWindows) Window {
	switch period {
	case "weekly":
		return aux.Week
	case "yearly":
		return aux.Year
	default:
		return aux.Month
	}
}

// ResolveRange turns a range selection into the current window and, when the
// range supports it, the immediately preceding comparable window. Custom
// ranges have no comparison: their percentage change is reported as zero, a
// deliberate policy rather than a "same-length prior period" guess. A custom
// selection missing either bound falls back to monthly.
func ResolveRange(q RangeQuery, now time.Time) (Window, *Window) {
	switch q.Range {
	case RangeYearly:
		current := YearWindow(now)
		prev := YearWindow(current.Start.AddDate(-1, 0, 0))
		return current, &prev
	case RangeCustom:
		if !q.From.IsZero() && !q.To.IsZero() {
			start := time.Date(q.From.Year(), q.From.Month(), q.From.Day(), 0, 0, 0, 0, q.From.Location())
			end := time.Date(q.To.Year(), q.To.Month(), q.To.Day(), 0, 0, 0, 0, q.To.Location()).
				AddDate(0, 0, 1).Add(-time.Nanosecond)
			return Window{Start: start, End: end}, nil
		}
	}
	current := MonthWindow(now)
	prev := MonthWindow(current.Start.AddDate(0, -1, 0))
	return current, &prev
}
