package models

import "strings"

// DayResultKind classifies what the display policy resolved for a day.
type DayResultKind string

const (
	DayResultSingle  DayResultKind = "SINGLE"
	DayResultMixed   DayResultKind = "MIXED"
	DayResultUnknown DayResultKind = "UNKNOWN"
)

// DayCountryResult is the resolved country (or countries) for one
// calendar day. Derived on demand from the interval set, never stored.
// Mixed days carry at most two codes, ascending lexicographic order.
type DayCountryResult struct {
	Kind  DayResultKind `json:"kind"`
	Codes []string      `json:"codes,omitempty"`
}

// SingleDay builds a single-country result.
func SingleDay(code string) DayCountryResult {
	return DayCountryResult{Kind: DayResultSingle, Codes: []string{code}}
}

// MixedDay builds a mixed-country result. Codes must already be sorted
// and capped by the caller.
func MixedDay(codes []string) DayCountryResult {
	return DayCountryResult{Kind: DayResultMixed, Codes: codes}
}

// UnknownDay is the result for a day with no data (or a future day).
func UnknownDay() DayCountryResult {
	return DayCountryResult{Kind: DayResultUnknown}
}

// DisplayText renders the result the way the calendar grid shows it.
func (r DayCountryResult) DisplayText() string {
	switch r.Kind {
	case DayResultSingle:
		return r.Codes[0]
	case DayResultMixed:
		return strings.Join(r.Codes, "/")
	default:
		return "—"
	}
}
