package models

import "time"

// LocationEventLog is one row of the append-only observation audit trail.
// Every incoming observation gets a row, accepted or not; rejected rows
// carry the reason in Note.
type LocationEventLog struct {
	ID                   string    `json:"id" db:"id"`
	Timestamp            time.Time `json:"timestamp" db:"timestamp"`
	Latitude             float64   `json:"latitude" db:"latitude"`
	Longitude            float64   `json:"longitude" db:"longitude"`
	Source               string    `json:"source" db:"source"`
	CountryCodeCandidate string    `json:"countryCodeCandidate,omitempty" db:"country_code_candidate"`
	Accepted             bool      `json:"accepted" db:"accepted"`
	Note                 string    `json:"note,omitempty" db:"note"`
}
