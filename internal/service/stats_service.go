package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mark1ns0n/country-days-backend/internal/aggregation"
	"github.com/mark1ns0n/country-days-backend/internal/dateutil"
	"github.com/mark1ns0n/country-days-backend/internal/models"
	"github.com/mark1ns0n/country-days-backend/internal/repository"
)

// StatsService answers aggregate queries. Reads run against a snapshot
// of intervals fetched per call; the aggregation engine itself is pure,
// so no locking is needed here.
type StatsService struct {
	stays     *repository.StayRepository
	summaries *repository.SummaryRepository
	agg       *aggregation.Service
}

// NewStatsService creates a new stats service
func NewStatsService(stays *repository.StayRepository, summaries *repository.SummaryRepository, agg *aggregation.Service) *StatsService {
	return &StatsService{stays: stays, summaries: summaries, agg: agg}
}

func (s *StatsService) snapshot(ctx context.Context, r dateutil.Range) ([]models.StayInterval, error) {
	intervals, err := s.stays.FetchIntervals(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interval snapshot: %w", err)
	}
	return intervals, nil
}

// DaysByCountry counts days per country over the range.
func (s *StatsService) DaysByCountry(ctx context.Context, r dateutil.Range) (map[string]int, error) {
	intervals, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.agg.DaysByCountry(r, intervals), nil
}

// UniqueDaysWithCountry counts days with any known country.
func (s *StatsService) UniqueDaysWithCountry(ctx context.Context, r dateutil.Range) (int, error) {
	intervals, err := s.snapshot(ctx, r)
	if err != nil {
		return 0, err
	}
	return s.agg.UniqueDaysWithCountry(r, intervals), nil
}

// VisitedCountries lists countries touched by the range.
func (s *StatsService) VisitedCountries(ctx context.Context, r dateutil.Range) ([]string, error) {
	intervals, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.agg.VisitedCountries(r, intervals), nil
}

// DayMap resolves the display result for every day of the range.
func (s *StatsService) DayMap(ctx context.Context, r dateutil.Range) (map[string]models.DayCountryResult, error) {
	intervals, err := s.snapshot(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.agg.DayMap(r, intervals), nil
}

// Forecast runs the days-until-change walk for one country.
func (s *StatsService) Forecast(ctx context.Context, code string, r dateutil.Range) (models.ChangeForecast, error) {
	intervals, err := s.snapshot(ctx, r)
	if err != nil {
		return models.ChangeForecast{}, err
	}
	return s.agg.DaysUntilChangeForCountry(code, r, intervals), nil
}

// MonthRange resolves a YYYY-MM month into its inclusive day range.
func (s *StatsService) MonthRange(month time.Time) dateutil.Range {
	loc := s.agg.Location()
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	end := dateutil.EndOfDay(start.AddDate(0, 1, -1), loc)
	return dateutil.Range{Lower: start, Upper: end}
}

// Summary returns the persisted snapshot, computing it on first use.
func (s *StatsService) Summary(ctx context.Context) (models.YearSummary, error) {
	stored, err := s.summaries.FetchSummary(ctx)
	if err != nil {
		return models.YearSummary{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	return s.RefreshSummary(ctx)
}

// RefreshSummary recomputes the trailing-year snapshot from the latest
// interval state and persists it for out-of-process consumers.
func (s *StatsService) RefreshSummary(ctx context.Context) (models.YearSummary, error) {
	r := s.agg.TrailingYearRange()
	intervals, err := s.snapshot(ctx, r)
	if err != nil {
		return models.YearSummary{}, err
	}

	summary := s.agg.BuildSummary(r, intervals)
	if err := s.summaries.SaveSummary(ctx, summary); err != nil {
		return models.YearSummary{}, err
	}
	return summary, nil
}

// RefreshSummaryAsync is the debounced-refresh target; failures are
// logged, never propagated, since the snapshot is advisory.
func (s *StatsService) RefreshSummaryAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.RefreshSummary(ctx); err != nil {
		log.Printf("summary refresh failed: %v", err)
	}
}
