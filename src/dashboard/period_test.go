package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthWindowBoundariesInclusive(t *testing.T) {
	win := MonthWindow(date(2024, time.March, 15))

	assert.Equal(t, date(2024, time.March, 1), win.Start)
	assert.True(t, win.Contains(date(2024, time.March, 1)), "first instant of the month")
	assert.True(t, win.Contains(time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)), "last second of the month")
	assert.False(t, win.Contains(date(2024, time.April, 1)))
	assert.False(t, win.Contains(time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC)))
}

func TestYearWindowBoundariesInclusive(t *testing.T) {
	win := YearWindow(date(2024, time.July, 4))

	assert.Equal(t, date(2024, time.January, 1), win.Start)
	assert.True(t, win.Contains(date(2024, time.January, 1)))
	assert.True(t, win.Contains(time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, win.Contains(date(2025, time.January, 1)))
}

func TestWeekWindowStartsSunday(t *testing.T) {
	// 2024-03-13 is a Wednesday; the containing week starts Sunday 03-10.
	win := WeekWindow(date(2024, time.March, 13))

	assert.Equal(t, date(2024, time.March, 10), win.Start)
	assert.True(t, win.Contains(date(2024, time.March, 10)))
	assert.True(t, win.Contains(time.Date(2024, time.March, 16, 23, 59, 59, 0, time.UTC)))
	assert.False(t, win.Contains(date(2024, time.March, 17)))

	// Anchoring on the Sunday itself keeps the same window.
	assert.Equal(t, win, WeekWindow(date(2024, time.March, 10)))
}

func TestResolveRangeMonthly(t *testing.T) {
	now := time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)
	current, prev := ResolveRange(RangeQuery{Range: RangeMonthly}, now)

	require.NotNil(t, prev)
	assert.Equal(t, date(2024, time.March, 1), current.Start)
	assert.Equal(t, date(2024, time.February, 1), prev.Start)
	assert.True(t, prev.Contains(time.Date(2024, time.February, 29, 10, 0, 0, 0, time.UTC)))
}

func TestResolveRangeMonthlyFromMarch31(t *testing.T) {
	// Previous window must be all of February even when "one month before
	// March 31" does not exist as a calendar day.
	now := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC)
	_, prev := ResolveRange(RangeQuery{Range: RangeMonthly}, now)

	require.NotNil(t, prev)
	assert.Equal(t, date(2024, time.February, 1), prev.Start)
	assert.False(t, prev.Contains(date(2024, time.March, 1)))
}

func TestResolveRangeYearly(t *testing.T) {
	now := date(2024, time.June, 10)
	current, prev := ResolveRange(RangeQuery{Range: RangeYearly}, now)

	require.NotNil(t, prev)
	assert.Equal(t, date(2024, time.January, 1), current.Start)
	assert.Equal(t, date(2023, time.January, 1), prev.Start)
	assert.True(t, prev.Contains(time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC)))
}

func TestResolveRangeCustomHasNoComparison(t *testing.T) {
	q := RangeQuery{
		Range: RangeCustom,
		From:  date(2024, time.February, 10),
		To:    date(2024, time.February, 20),
	}
	current, prev := ResolveRange(q, date(2024, time.June, 1))

	assert.Nil(t, prev)
	assert.Equal(t, date(2024, time.February, 10), current.Start)
	assert.True(t, current.Contains(time.Date(2024, time.February, 20, 23, 59, 59, 0, time.UTC)), "To date is included whole")
	assert.False(t, current.Contains(date(2024, time.February, 21)))
}

func TestResolveRangeCustomMissingBoundFallsBackToMonthly(t *testing.T) {
	now := date(2024, time.June, 15)
	current, prev := ResolveRange(RangeQuery{Range: RangeCustom, From: date(2024, time.June, 1)}, now)

	require.NotNil(t, prev)
	assert.Equal(t, date(2024, time.June, 1), current.Start)
	assert.Equal(t, date(2024, time.May, 1), prev.Start)
}

func TestResolveRangeUnknownDefaultsToMonthly(t *testing.T) {
	now := date(2024, time.June, 15)
	current, prev := ResolveRange(RangeQuery{Range: "quarterly"}, now)

	require.NotNil(t, prev)
	assert.Equal(t, date(2024, time.June, 1), current.Start)
}

func TestWindowForPeriod(t *testing.T) {
	aux := Auxiliary(date(2024, time.March, 13))

	assert.Equal(t, aux.Week, WindowForPeriod("weekly", aux))
	assert.Equal(t, aux.Month, WindowForPeriod("monthly", aux))
	assert.Equal(t, aux.Year, WindowForPeriod("yearly", aux))
	assert.Equal(t, aux.Month, WindowForPeriod("fortnightly", aux))
}
