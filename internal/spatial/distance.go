package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula. Inputs are not validated.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Distance returns the great-circle distance in meters between a and b.
// It fails with ErrInvalidCoordinate when either coordinate is malformed.
func Distance(a, b Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon), nil
}

// Within reports whether b lies within radius meters of a.
func Within(a, b Coordinate, radius float64) (bool, error) {
	d, err := Distance(a, b)
	if err != nil {
		return false, err
	}
	return d <= radius, nil
}

// DestinationPoint calculates the destination point given a start point, bearing, and distance
// bearing: degrees (0-360), distance: meters
func DestinationPoint(from Coordinate, bearing, distance float64) Coordinate {
	p := s2.LatLngFromDegrees(from.Lat, from.Lon)
	bearingRad := bearing * math.Pi / 180
	angularDistance := distance / EarthRadiusMeters

	latRad := p.Lat.Radians()
	lonRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDistance) +
		math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(bearingRad))

	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(lat2))

	return Coordinate{Lat: lat2 * 180 / math.Pi, Lon: lon2 * 180 / math.Pi}
}

// Interpolate returns the point at fraction t (0..1) of the great circle between a and b.
func Interpolate(a, b Coordinate, t float64) Coordinate {
	pa := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	pb := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	ll := s2.LatLngFromPoint(s2.Interpolate(t, pa, pb))
	return Coordinate{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}
