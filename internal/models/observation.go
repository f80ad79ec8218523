package models

import "time"

// Observation is a single resolved geolocation event handed to the
// stay engine: the country the user appears to be in, when, from which
// signal source, and how trustworthy the fix is.
type Observation struct {
	CountryCode string    `json:"countryCode"`
	At          time.Time `json:"at"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
}

// ObservationRequest is the ingest payload. Coordinates are kept for
// the audit log and the distance-based switch confirmer; the core
// engine only ever sees the resolved country code.
type ObservationRequest struct {
	Latitude    float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" binding:"min=-180,max=180"`
	CountryCode string  `json:"countryCode"`
	Timestamp   int64   `json:"timestamp"` // Unix seconds; 0 means "now"
	Source      string  `json:"source"`
	Confidence  float64 `json:"confidence"`
}
