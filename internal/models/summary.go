package models

import "time"

// CountryDays pairs a country code with a day count.
type CountryDays struct {
	Code string `json:"code"`
	Days int    `json:"days"`
}

// YearSummary is the persisted snapshot consumed by external summary
// surfaces (home-screen widgets). Recomputed over a trailing window.
// TripsCount counts closed intervals only; an open interval is not
// yet a trip.
type YearSummary struct {
	CountriesCount int           `json:"countriesCount"`
	TotalDays      int           `json:"totalDays"`
	TripsCount     int           `json:"tripsCount"`
	TopCountries   []CountryDays `json:"topCountries"`
	LastUpdated    time.Time     `json:"lastUpdated"`
}

// ChangeForecast is the result of the days-until-change walk for one
// target country over a range. Offsets are 1-based day positions;
// nil means no such day exists in the range.
type ChangeForecast struct {
	Code          string `json:"code"`
	DaysUntilGain *int   `json:"daysUntilGain,omitempty"` // first day NOT owned by Code
	DaysUntilLoss *int   `json:"daysUntilLoss,omitempty"` // first day owned by Code
}
