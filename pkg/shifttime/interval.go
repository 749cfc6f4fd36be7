// Package shifttime holds the date and interval arithmetic shared by the
// roster engine: overnight spans, 15-minute boundaries, week anchoring.
package shifttime

import (
	"time"
)

const (
	day = 24 * time.Hour

	MinOvernightSpan = 1 * time.Hour
	MaxOvernightSpan = 23 * time.Hour
)

// IsOvernight reports whether a template shift wraps past midnight.
func IsOvernight(start, end TimeOfDay) bool {
	return !start.Before(end)
}

// WrappedDuration is the length of a template shift, treating end <= start
// as ending on the following day.
func WrappedDuration(start, end TimeOfDay) time.Duration {
	d := time.Duration(end.minutes-start.minutes) * time.Minute
	if IsOvernight(start, end) {
		d += day
	}
	return d
}

// ValidTemplateSpan checks the template-shift rule: same-day shifts are
// always fine, overnight shifts must last between 1 and 23 hours.
func ValidTemplateSpan(start, end TimeOfDay) bool {
	if !IsOvernight(start, end) {
		return true
	}
	d := WrappedDuration(start, end)
	return d >= MinOvernightSpan && d <= MaxOvernightSpan
}

// Span is the budget duration rule: end-start, plus 24h when negative.
func Span(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		d += day
	}
	return d
}

// TimeOfDaySpan applies Span to two wall-clock times.
func TimeOfDaySpan(start, end TimeOfDay) time.Duration {
	d := time.Duration(end.minutes-start.minutes) * time.Minute
	if d < 0 {
		d += day
	}
	return d
}

// Overlaps is the half-open interval test: [aStart,aEnd) and [bStart,bEnd)
// intersect. Adjacent intervals (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// OnQuarterHour reports whether t sits exactly on a 15-minute boundary.
func OnQuarterHour(t time.Time) bool {
	return t.Minute()%15 == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// DateOnly strips the clock from t, keeping its calendar date, in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsMonday reports whether t falls on a Monday.
func IsMonday(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// WeekEnd returns the last date of the week that starts on weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}

// StartOfWeek returns the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return DateOnly(t).AddDate(0, 0, -offset)
}

// DaysToAdd is the offset from weekStart to the next occurrence of target
// (zero when weekStart already is target).
func DaysToAdd(target Weekday, weekStart time.Time) int {
	diff := int(target) - int(WeekdayOf(weekStart))
	if diff < 0 {
		diff += 7
	}
	return diff
}

// DateFor returns the calendar date of target within the week anchored at weekStart.
func DateFor(target Weekday, weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, DaysToAdd(target, weekStart))
}

// Instantiate places a template shift on a concrete date in loc. The end is
// moved to the next calendar day when the shift wraps past midnight.
func Instantiate(date time.Time, start, end TimeOfDay, loc *time.Location) (time.Time, time.Time) {
	startAt := start.On(date, loc)
	endAt := end.On(date, loc)
	if IsOvernight(start, end) {
		endAt = end.On(date.AddDate(0, 0, 1), loc)
	}
	return startAt, endAt
}
