// Package solid turns a heightfield into a closed, printable triangle
// mesh: the terrain as top surface, a vertical skirt around the
// perimeter, and a flat base at z=0.
package solid

import (
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/terrastl/pkg/dem"
	"github.com/philipparndt/terrastl/pkg/geometry"
	"github.com/philipparndt/terrastl/pkg/stl"
)

// ErrInvalidScale is returned for a non-positive vertical scale or a
// negative base thickness.
var ErrInvalidScale = errors.New("solid: invalid scale")

// Generate builds a closed manifold solid from the heightfield. Top
// vertices sit at verticalScale*(z-zMin)+baseThickness, the base at
// z=0, so the thinnest point of the model is exactly baseThickness.
// The top surface splits every grid cell into two triangles along the
// southwest-to-northeast diagonal; the base mirrors that triangulation
// facing down; one vertical quad per perimeter segment closes the
// sides. Every edge ends up shared by exactly two triangles with
// opposite direction, which makes the mesh watertight.
func Generate(hf *dem.Heightfield, verticalScale, baseThickness float64) (*stl.Model, error) {
	if math.IsNaN(verticalScale) || verticalScale <= 0 {
		return nil, fmt.Errorf("%w: vertical scale %g must be positive", ErrInvalidScale, verticalScale)
	}
	if math.IsNaN(baseThickness) || baseThickness < 0 {
		return nil, fmt.Errorf("%w: base thickness %g must not be negative", ErrInvalidScale, baseThickness)
	}
	nx, ny := hf.Width, hf.Height
	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("heightfield %dx%d cannot form a solid, need at least 2x2", nx, ny)
	}

	// Precompute one coordinate per column, row and top vertex. Triangles
	// that share a vertex must reference bitwise-identical coordinates or
	// the mesh falls apart into unconnected edges.
	xs := make([]float64, nx)
	for i := range xs {
		xs[i] = float64(i) * hf.CellSizeX
	}
	ys := make([]float64, ny)
	for j := range ys {
		ys[j] = float64(j) * hf.CellSizeY
	}
	zMin := hf.MinZ()
	top := make([]float64, nx*ny)
	for idx, z := range hf.Z {
		top[idx] = verticalScale*(z-zMin) + baseThickness
	}

	topVertex := func(i, j int) geometry.Vector3 {
		return geometry.NewVector3(xs[i], ys[j], top[j*nx+i])
	}
	baseVertex := func(i, j int) geometry.Vector3 {
		return geometry.NewVector3(xs[i], ys[j], 0)
	}

	model := stl.NewModel("terrain")

	// Top surface, wound counter-clockwise seen from above.
	up := geometry.NewVector3(0, 0, 1)
	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			sw := topVertex(i, j)
			se := topVertex(i+1, j)
			nw := topVertex(i, j+1)
			ne := topVertex(i+1, j+1)
			model.AddTriangle(facet(sw, se, ne, up))
			model.AddTriangle(facet(sw, ne, nw, up))
		}
	}

	// Base mirrors the top triangulation at z=0, facing down, so its
	// perimeter subdivides exactly like the skirt bottoms.
	down := geometry.NewVector3(0, 0, -1)
	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			sw := baseVertex(i, j)
			se := baseVertex(i+1, j)
			nw := baseVertex(i, j+1)
			ne := baseVertex(i+1, j+1)
			model.AddTriangle(facet(sw, ne, se, down))
			model.AddTriangle(facet(sw, nw, ne, down))
		}
	}

	// Skirt, perimeter walked counter-clockwise seen from above so each
	// wall quad faces outward.
	south := geometry.NewVector3(0, -1, 0)
	for i := 0; i < nx-1; i++ {
		wall(model, baseVertex(i, 0), baseVertex(i+1, 0), topVertex(i+1, 0), topVertex(i, 0), south)
	}
	east := geometry.NewVector3(1, 0, 0)
	for j := 0; j < ny-1; j++ {
		wall(model, baseVertex(nx-1, j), baseVertex(nx-1, j+1), topVertex(nx-1, j+1), topVertex(nx-1, j), east)
	}
	north := geometry.NewVector3(0, 1, 0)
	for i := nx - 1; i > 0; i-- {
		wall(model, baseVertex(i, ny-1), baseVertex(i-1, ny-1), topVertex(i-1, ny-1), topVertex(i, ny-1), north)
	}
	west := geometry.NewVector3(-1, 0, 0)
	for j := ny - 1; j > 0; j-- {
		wall(model, baseVertex(0, j), baseVertex(0, j-1), topVertex(0, j-1), topVertex(0, j), west)
	}

	return model, nil
}

// TriangleCount returns the number of triangles Generate emits for an
// nx by ny heightfield: top and base carry 2(nx-1)(ny-1) each, the
// skirt one quad per perimeter segment.
func TriangleCount(nx, ny int) int {
	return 4*(nx-1)*(ny-1) + 4*((nx-1)+(ny-1))
}

// wall emits one vertical quad from the base segment b1-b2 up to the top
// segment t1-t2, split along the b1-t2 diagonal.
func wall(model *stl.Model, b1, b2, t2, t1, outward geometry.Vector3) {
	model.AddTriangle(facet(b1, b2, t2, outward))
	model.AddTriangle(facet(b1, t2, t1, outward))
}

// facet builds a triangle with its normal derived from the winding.
// Zero-area triangles keep the face's construction normal instead of
// degenerating to NaN; they occur when a wall collapses because the
// terrain touches the base.
func facet(v1, v2, v3, fallback geometry.Vector3) geometry.Triangle {
	t := geometry.NewFacet(v1, v2, v3)
	if t.IsDegenerate() {
		t.Normal = fallback
	}
	return t
}
