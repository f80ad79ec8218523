package aggregation

import (
	"sort"

	"github.com/mark1ns0n/country-days-backend/internal/dateutil"
	"github.com/mark1ns0n/country-days-backend/internal/models"
)

// TrailingYearRange returns the rolling 365-day window ending today:
// start of day 364 days ago through end of today.
func (s *Service) TrailingYearRange() dateutil.Range {
	now := s.now()
	start := dateutil.StartOfDay(now.AddDate(0, 0, -364), s.loc)
	end := dateutil.EndOfDay(now, s.loc)
	return dateutil.Range{Lower: start, Upper: end}
}

// BuildSummary computes the summary snapshot for external consumers
// over the given range. Trips are closed intervals only; the open
// interval is the stay still in progress, not a finished trip.
func (s *Service) BuildSummary(r dateutil.Range, intervals []models.StayInterval) models.YearSummary {
	dayCounts := s.DaysByCountry(r, intervals)
	visited := s.VisitedCountries(r, intervals)

	trips := 0
	for _, iv := range intervals {
		if iv.ExitAt != nil {
			trips++
		}
	}

	top := make([]models.CountryDays, 0, len(dayCounts))
	for code, days := range dayCounts {
		top = append(top, models.CountryDays{Code: code, Days: days})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Days != top[j].Days {
			return top[i].Days > top[j].Days
		}
		return top[i].Code < top[j].Code
	})

	return models.YearSummary{
		CountriesCount: len(visited),
		TotalDays:      s.UniqueDaysWithCountry(r, intervals),
		TripsCount:     trips,
		TopCountries:   top,
		LastUpdated:    s.now(),
	}
}
