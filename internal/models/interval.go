package models

import "time"

// StayInterval represents a contiguous stay in one country.
// An open interval (ExitAt == nil) is the user's current residence;
// at most one interval is open at any time.
type StayInterval struct {
	ID          string     `json:"id" db:"id"`
	CountryCode string     `json:"countryCode" db:"country_code"` // ISO 3166-1 alpha-2
	EntryAt     time.Time  `json:"entryAt" db:"entry_at"`
	ExitAt      *time.Time `json:"exitAt,omitempty" db:"exit_at"`
	Source      string     `json:"source" db:"source"`
	Confidence  float64    `json:"confidence" db:"confidence"` // 0.0 to 1.0
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsOpen reports whether the interval has no exit time yet.
func (i StayInterval) IsOpen() bool {
	return i.ExitAt == nil
}

// EndOr returns ExitAt, or fallback when the interval is still open.
// Aggregation uses this to extend open intervals to "now".
func (i StayInterval) EndOr(fallback time.Time) time.Time {
	if i.ExitAt != nil {
		return *i.ExitAt
	}
	return fallback
}

// IntervalsResponse represents a paginated response of stay intervals
type IntervalsResponse struct {
	Data       []StayInterval `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
