// Package spatial provides the little geographic math the ingest path
// needs: coordinate sanity checks and great-circle distance for the
// distance-based switch confirmer.
package spatial

import "github.com/golang/geo/s2"

const (
	// EarthRadiusMeters is Earth's mean radius in meters
	EarthRadiusMeters = 6371000.0
)

// HaversineDistance calculates the great-circle distance between two
// points in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// ValidCoordinate reports whether lat/lon form a normalized geographic
// coordinate.
func ValidCoordinate(lat, lon float64) bool {
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}
