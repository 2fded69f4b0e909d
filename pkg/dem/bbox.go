package dem

import (
	"fmt"
	"math"
)

// BoundingBox is a geographic extent in degrees. Latitude grows north,
// longitude grows east.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Validate checks that the box is well formed: finite values, min strictly
// below max on both axes, and coordinates within world range.
func (b BoundingBox) Validate() error {
	for _, v := range [4]float64{b.MinLat, b.MaxLat, b.MinLon, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bounding box has non-finite coordinate: %v", b)
		}
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("bounding box latitude range is empty: min %g, max %g", b.MinLat, b.MaxLat)
	}
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("bounding box longitude range is empty: min %g, max %g", b.MinLon, b.MaxLon)
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]: %g to %g", b.MinLat, b.MaxLat)
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]: %g to %g", b.MinLon, b.MaxLon)
	}
	return nil
}

// Center returns the midpoint of the box in degrees.
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Contains reports whether the point lies inside the box, borders included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g, %g] x [%g, %g]", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}
