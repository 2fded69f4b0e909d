package analysis

import (
	"math"

	"github.com/philipparndt/terrastl/pkg/geometry"
	"github.com/philipparndt/terrastl/pkg/stl"
)

// ManifoldReport summarizes the edge structure of a triangle mesh.
// EdgeCount is the number of distinct undirected edges. A boundary edge
// belongs to only one triangle; a non-manifold edge has more than two
// incident triangles or two triangles winding the same way.
type ManifoldReport struct {
	EdgeCount        int
	BoundaryEdges    int
	NonManifoldEdges int
}

// IsClosed reports whether the mesh is a closed orientable surface:
// every edge is shared by exactly two triangles with opposite direction.
func (r ManifoldReport) IsClosed() bool {
	return r.BoundaryEdges == 0 && r.NonManifoldEdges == 0
}

// meshVertex identifies a vertex by the exact bit pattern of its
// coordinates. Triangles only share an edge when their endpoint
// coordinates are bitwise identical, which generated meshes guarantee
// by reusing one coordinate array per axis.
type meshVertex struct {
	x, y, z uint64
}

type meshEdge struct {
	from, to meshVertex
}

func vertexOf(v geometry.Vector3) meshVertex {
	return meshVertex{
		x: math.Float64bits(v.X),
		y: math.Float64bits(v.Y),
		z: math.Float64bits(v.Z),
	}
}

func vertexLess(a, b meshVertex) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	if a.y != b.y {
		return a.y < b.y
	}
	return a.z < b.z
}

// CheckManifold counts directed edges over all triangles and classifies
// each undirected edge. An edge seen once in each direction is a proper
// interior edge; once in total is a boundary; anything else, including a
// zero-length self edge, is non-manifold.
func CheckManifold(model *stl.Model) ManifoldReport {
	counts := make(map[meshEdge]int, len(model.Triangles)*3)
	for _, triangle := range model.Triangles {
		a := vertexOf(triangle.V1)
		b := vertexOf(triangle.V2)
		c := vertexOf(triangle.V3)
		counts[meshEdge{a, b}]++
		counts[meshEdge{b, c}]++
		counts[meshEdge{c, a}]++
	}

	var report ManifoldReport
	seen := make(map[meshEdge]bool, len(counts))
	for edge, forward := range counts {
		canonical := edge
		if vertexLess(edge.to, edge.from) {
			canonical = meshEdge{edge.to, edge.from}
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		report.EdgeCount++

		if edge.from == edge.to {
			report.NonManifoldEdges++
			continue
		}

		reverse := counts[meshEdge{edge.to, edge.from}]
		switch {
		case forward == 1 && reverse == 1:
			// interior edge shared by two opposing triangles
		case forward+reverse == 1:
			report.BoundaryEdges++
		default:
			report.NonManifoldEdges++
		}
	}
	return report
}
