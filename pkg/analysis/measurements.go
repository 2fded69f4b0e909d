package analysis

import (
	"fmt"

	"github.com/philipparndt/terrastl/pkg/geometry"
	"github.com/philipparndt/terrastl/pkg/stl"
)

// MeasurementResult contains various measurements of an STL model
type MeasurementResult struct {
	BoundingBox         geometry.BoundingBox
	Dimensions          geometry.Vector3
	Volume              float64
	SurfaceArea         float64
	TriangleCount       int
	DegenerateTriangles int
	MinEdgeLength       float64
	MaxEdgeLength       float64
	AvgEdgeLength       float64
	Manifold            ManifoldReport
}

// AnalyzeModel performs comprehensive analysis on an STL model. Volume is
// the signed enclosed volume, positive for outward-facing windings; it is
// only meaningful when the manifold report says the mesh is closed.
func AnalyzeModel(model *stl.Model) *MeasurementResult {
	result := &MeasurementResult{
		BoundingBox:   model.BoundingBox(),
		SurfaceArea:   model.SurfaceArea(),
		Volume:        model.SignedVolume(),
		TriangleCount: model.TriangleCount(),
		Manifold:      CheckManifold(model),
	}

	result.Dimensions = result.BoundingBox.Size()

	minLength := 0.0
	maxLength := 0.0
	totalLength := 0.0
	edgeCount := 0

	for _, triangle := range model.Triangles {
		if triangle.IsDegenerate() {
			result.DegenerateTriangles++
		}
		for _, length := range triangle.EdgeLengths() {
			totalLength += length
			if edgeCount == 0 || length < minLength {
				minLength = length
			}
			if length > maxLength {
				maxLength = length
			}
			edgeCount++
		}
	}

	result.MinEdgeLength = minLength
	result.MaxEdgeLength = maxLength
	if edgeCount > 0 {
		result.AvgEdgeLength = totalLength / float64(edgeCount)
	}

	return result
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
