package source

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/philipparndt/terrastl/pkg/dem"
)

// EarthRadiusMeters is the mean earth radius used for great-circle math.
const EarthRadiusMeters = 6371000.0

// BoundsAround returns the bounding box reached by travelling radius
// meters from the center in each cardinal direction. Regions touching a
// pole or crossing the antimeridian are rejected; the planar projection
// downstream cannot represent them anyway.
func BoundsAround(lat, lon, radius float64) (dem.BoundingBox, error) {
	if math.IsNaN(radius) || radius <= 0 {
		return dem.BoundingBox{}, fmt.Errorf("radius %g must be positive", radius)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return dem.BoundingBox{}, fmt.Errorf("center (%g, %g) out of range", lat, lon)
	}
	radiusDeg := radius / EarthRadiusMeters * 180 / math.Pi
	if lat+radiusDeg >= 90 || lat-radiusDeg <= -90 {
		return dem.BoundingBox{}, fmt.Errorf("region around (%g, %g) with radius %gm reaches a pole", lat, lon, radius)
	}

	maxLat, _ := destinationPoint(lat, lon, 0, radius)
	_, maxLon := destinationPoint(lat, lon, 90, radius)
	minLat, _ := destinationPoint(lat, lon, 180, radius)
	_, minLon := destinationPoint(lat, lon, 270, radius)

	bounds := dem.BoundingBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
	if err := bounds.Validate(); err != nil {
		return dem.BoundingBox{}, fmt.Errorf("region around (%g, %g) with radius %gm: %w", lat, lon, radius, err)
	}
	return bounds, nil
}

// destinationPoint calculates the point reached from a start point at
// the given bearing (degrees, 0 north / 90 east) and distance in meters.
func destinationPoint(lat, lon, bearing, distance float64) (float64, float64) {
	p := s2.LatLngFromDegrees(lat, lon)
	bearingRad := bearing * math.Pi / 180
	angularDistance := distance / EarthRadiusMeters

	latRad := p.Lat.Radians()
	lonRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDistance) +
		math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(bearingRad))

	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(lat2))

	return lat2 * 180 / math.Pi, lon2 * 180 / math.Pi
}
