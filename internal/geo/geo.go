package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// earthRadiusKm is the Earth's volumetric mean radius in kilometers.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const earthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance between two
// coordinates in kilometers.
//
// The function is total over valid coordinate ranges. Malformed input
// (NaN components) produces NaN rather than an error; callers that sort
// by distance must treat NaN as infinitely far (see SortsAfter).
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * earthRadiusKm
}

// SortsAfter reports whether distance a should be ordered after distance
// b in an ascending distance sort. NaN distances sort after all real
// distances; two NaNs compare equal (neither sorts after the other).
func SortsAfter(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	if math.IsNaN(b) {
		return false
	}
	return a > b
}

// IsValidLatLon returns true if the given latitude and longitude values
// fall within the valid geographic coordinate bounds.
//
// Latitude must be between -90 and 90 degrees, and longitude must be
// between -180 and 180 degrees.
//
// Note: This function treats the coordinate (0,0) as invalid, even though it
// is a valid location in the Gulf of Guinea. This assumption is made to help
// detect uninitialized or placeholder coordinates commonly represented as (0,0).
func IsValidLatLon(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return true
}

// BoundingBoxOf computes the minimal bound containing all the given
// points. The second return value is false when points is empty.
func BoundingBoxOf(points []orb.Point) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}

	bound := orb.Bound{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		bound = bound.Extend(p)
	}
	return bound, true
}
