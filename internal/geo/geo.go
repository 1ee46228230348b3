// Package geo holds the distance math behind the office geofence.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Fence is a circular zone around a center point.
type Fence struct {
	CenterLat    float64
	CenterLng    float64
	RadiusMeters float64
}

// DistanceMeters returns the great-circle distance between two points given in
// decimal degrees.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLng := toRadians(lng2 - lng1)

	sinLat := math.Sin(deltaLat / 2)
	sinLng := math.Sin(deltaLng / 2)
	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLng*sinLng
	// Rounding can push a just outside [0, 1] for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// IsInside reports whether the point lies within the fence. The boundary
// counts as inside.
func IsInside(lat, lng float64, fence Fence) bool {
	return DistanceMeters(lat, lng, fence.CenterLat, fence.CenterLng) <= fence.RadiusMeters
}

// ValidCoordinates reports whether lat/lng are finite and within range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
