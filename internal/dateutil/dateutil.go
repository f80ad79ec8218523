// Package dateutil provides the calendar math the aggregation engine
// is built on: day boundaries, day enumeration and inclusive day
// counts, all relative to a caller-supplied time zone.
package dateutil

import "time"

// Range is an inclusive time range.
type Range struct {
	Lower time.Time
	Upper time.Time
}

// NewRange builds a range, swapping the bounds if given in reverse.
func NewRange(a, b time.Time) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Lower: a, Upper: b}
}

// Contains reports whether t falls inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Lower) && !t.After(r.Upper)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last counted instant of t's calendar day in loc:
// the next day's start minus one second.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Second)
}

// DaysInRange returns the ordered day-start instants from the range's
// first day through its last day, inclusive. Recomputed on every call;
// there is no iterator state.
func DaysInRange(r Range, loc *time.Location) []time.Time {
	start := StartOfDay(r.Lower, loc)
	end := StartOfDay(r.Upper, loc)

	var days []time.Time
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// DayCount returns the inclusive number of calendar days spanned by a
// and b. Same-day inputs count as 1.
func DayCount(a, b time.Time, loc *time.Location) int {
	// Project both day starts onto UTC midnights so DST transitions
	// (23h/25h days) cannot skew the division.
	start := civilUTC(StartOfDay(a, loc))
	end := civilUTC(StartOfDay(b, loc))
	return int(end.Sub(start).Hours()/24) + 1
}

func civilUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
