package models

// IntervalFilter represents filter parameters for querying stay intervals
type IntervalFilter struct {
	From          int64   `form:"from"` // Unix seconds, inclusive
	To            int64   `form:"to"`   // Unix seconds, inclusive
	CountryCode   string  `form:"countryCode"`
	Source        string  `form:"source"`
	MinConfidence float64 `form:"minConfidence"`
	Page          int     `form:"page"`
	PageSize      int     `form:"pageSize"`
}

// NormalizePagination applies defaults and the upper page-size clamp.
// Both the repository query and the response metadata derive from the
// same normalized values.
func (f *IntervalFilter) NormalizePagination() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 100
	}
	if f.PageSize > 1000 {
		f.PageSize = 1000
	}
}

// RangeQuery is the common from/to pair for stats queries
type RangeQuery struct {
	From int64 `form:"from"`
	To   int64 `form:"to"`
}

// LogFilter limits audit log queries
type LogFilter struct {
	Limit int `form:"limit"`
}
