// Package aggregation resolves per-day country ownership from an
// immutable snapshot of stay intervals and derives range statistics.
// Everything here is a pure function of its inputs plus the injected
// clock; no locking, safe for concurrent use.
//
// Two day-resolution policies coexist:
//
//   - CountryForDay (display): the overlap set for the day. One
//     country -> SINGLE, two or more -> MIXED capped at two codes,
//     none -> UNKNOWN.
//   - dominant assignment (counting): the day belongs to the single
//     country with the largest overlap duration within the day, ties
//     broken by ascending country code. Day counts therefore sum
//     exactly to the number of assigned days.
package aggregation

import (
	"sort"
	"time"

	"github.com/mark1ns0n/country-days-backend/internal/dateutil"
	"github.com/mark1ns0n/country-days-backend/internal/models"
)

// Service is the aggregation engine. Construct once and share; it
// holds only the calendar configuration and a clock.
type Service struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates an aggregation service for the given time zone. A nil
// location falls back to time.Local.
func New(loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the calendar time zone the service reasons in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// CountryForDay resolves the display result for one calendar day:
// the set of countries whose intervals overlap it. Days strictly
// after today are always UNKNOWN, regardless of data.
func (s *Service) CountryForDay(day time.Time, intervals []models.StayInterval) models.DayCountryResult {
	now := s.now()
	dayStart := dateutil.StartOfDay(day, s.loc)
	if dayStart.After(dateutil.StartOfDay(now, s.loc)) {
		return models.UnknownDay()
	}
	dayEnd := dateutil.EndOfDay(day, s.loc)

	seen := make(map[string]struct{})
	for _, iv := range intervals {
		end := iv.EndOr(now)
		if !iv.EntryAt.After(dayEnd) && !end.Before(dayStart) {
			seen[iv.CountryCode] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return models.UnknownDay()
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if len(codes) == 1 {
		return models.SingleDay(codes[0])
	}
	return models.MixedDay(codes[:2])
}

// dominantCountryForDay assigns the day to the country with the
// largest total overlap duration inside [dayStart, dayEnd]. Equal
// durations resolve to the lexicographically smaller code. Returns
// false for future days and days with zero overlap.
func (s *Service) dominantCountryForDay(day time.Time, intervals []models.StayInterval) (string, bool) {
	now := s.now()
	dayStart := dateutil.StartOfDay(day, s.loc)
	if dayStart.After(dateutil.StartOfDay(now, s.loc)) {
		return "", false
	}
	dayEnd := dateutil.EndOfDay(day, s.loc)

	durations := make(map[string]time.Duration)
	for _, iv := range intervals {
		start := iv.EntryAt
		if start.Before(dayStart) {
			start = dayStart
		}
		end := iv.EndOr(now)
		if end.After(dayEnd) {
			end = dayEnd
		}
		if !end.After(start) {
			continue
		}
		durations[iv.CountryCode] += end.Sub(start)
	}
	if len(durations) == 0 {
		return "", false
	}

	var winner string
	var best time.Duration
	for code, d := range durations {
		if winner == "" || d > best || (d == best && code < winner) {
			winner = code
			best = d
		}
	}
	return winner, true
}

// dayAssignments maps each day of the range (keyed YYYY-MM-DD) to its
// dominant country. Unassigned days are absent.
func (s *Service) dayAssignments(r dateutil.Range, intervals []models.StayInterval) map[string]string {
	assignments := make(map[string]string)
	for _, day := range dateutil.DaysInRange(r, s.loc) {
		if code, ok := s.dominantCountryForDay(day, intervals); ok {
			assignments[day.Format("2006-01-02")] = code
		}
	}
	return assignments
}

// DaysByCountry counts, per country, the days of the range assigned to
// it under the dominant policy. Each day counts for at most one
// country, so the values sum to UniqueDaysWithCountry.
func (s *Service) DaysByCountry(r dateutil.Range, intervals []models.StayInterval) map[string]int {
	counts := make(map[string]int)
	for _, code := range s.dayAssignments(r, intervals) {
		counts[code]++
	}
	return counts
}

// UniqueDaysWithCountry counts the days of the range with any known
// country assignment.
func (s *Service) UniqueDaysWithCountry(r dateutil.Range, intervals []models.StayInterval) int {
	return len(s.dayAssignments(r, intervals))
}

// VisitedCountries returns the sorted set of countries with any
// interval overlapping the range at all. Coarser than day assignment:
// a one-hour layover still counts as visited.
func (s *Service) VisitedCountries(r dateutil.Range, intervals []models.StayInterval) []string {
	now := s.now()
	seen := make(map[string]struct{})
	for _, iv := range intervals {
		end := iv.EndOr(now)
		if !iv.EntryAt.After(r.Upper) && !end.Before(r.Lower) {
			seen[iv.CountryCode] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DayMap resolves the display result for every day of the range,
// keyed YYYY-MM-DD. This is what the calendar grid renders.
func (s *Service) DayMap(r dateutil.Range, intervals []models.StayInterval) map[string]models.DayCountryResult {
	out := make(map[string]models.DayCountryResult)
	for _, day := range dateutil.DaysInRange(r, s.loc) {
		out[day.Format("2006-01-02")] = s.CountryForDay(day, intervals)
	}
	return out
}

// DaysUntilChangeForCountry walks the ordered days of the range and
// reports, 1-based, the first day not owned by the target country
// (DaysUntilGain: arriving today nets +1 after that many days) and the
// first day owned by it (DaysUntilLoss: leaving forever nets -1 once
// that day drops out of the window). Either can be nil if no such day
// exists; the walk stops as soon as both are found.
func (s *Service) DaysUntilChangeForCountry(code string, r dateutil.Range, intervals []models.StayInterval) models.ChangeForecast {
	forecast := models.ChangeForecast{Code: code}
	for i, day := range dateutil.DaysInRange(r, s.loc) {
		owner, ok := s.dominantCountryForDay(day, intervals)
		owned := ok && owner == code

		if forecast.DaysUntilGain == nil && !owned {
			offset := i + 1
			forecast.DaysUntilGain = &offset
		}
		if forecast.DaysUntilLoss == nil && owned {
			offset := i + 1
			forecast.DaysUntilLoss = &offset
		}
		if forecast.DaysUntilGain != nil && forecast.DaysUntilLoss != nil {
			break
		}
	}
	return forecast
}
