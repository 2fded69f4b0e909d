package solid

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/philipparndt/terrastl/pkg/analysis"
	"github.com/philipparndt/terrastl/pkg/dem"
	"github.com/philipparndt/terrastl/pkg/stl"
)

func field(nx, ny int, cellSize float64, z []float64) *dem.Heightfield {
	return &dem.Heightfield{
		Width:     nx,
		Height:    ny,
		CellSizeX: cellSize,
		CellSizeY: cellSize,
		Z:         z,
	}
}

func flatField(nx, ny int, z float64) *dem.Heightfield {
	samples := make([]float64, nx*ny)
	for i := range samples {
		samples[i] = z
	}
	return field(nx, ny, 1, samples)
}

func TestGenerateFlatSlab(t *testing.T) {
	model, err := Generate(flatField(2, 2, 10), 1, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if model.TriangleCount() != 12 {
		t.Errorf("Expected 12 triangles, got %d", model.TriangleCount())
	}

	bounds := model.BoundingBox()
	if math.Abs(bounds.Min.Z) > 1e-10 || math.Abs(bounds.Max.Z-2) > 1e-10 {
		t.Errorf("Expected the slab to span z 0 to 2, got %f to %f", bounds.Min.Z, bounds.Max.Z)
	}

	volume := model.SignedVolume()
	if math.Abs(volume-2.0) > 1e-10 {
		t.Errorf("Expected volume 2.0 for a 1x1x2 slab, got %f", volume)
	}

	if report := analysis.CheckManifold(model); !report.IsClosed() {
		t.Errorf("Expected a closed mesh, got %+v", report)
	}
}

func TestGenerateTriangleCount(t *testing.T) {
	cases := []struct{ nx, ny int }{
		{2, 2},
		{3, 2},
		{4, 3},
		{7, 5},
	}
	for _, tc := range cases {
		model, err := Generate(flatField(tc.nx, tc.ny, 5), 1, 1)
		if err != nil {
			t.Fatalf("Generate(%dx%d) failed: %v", tc.nx, tc.ny, err)
		}
		if model.TriangleCount() != TriangleCount(tc.nx, tc.ny) {
			t.Errorf("Grid %dx%d: expected %d triangles, got %d",
				tc.nx, tc.ny, TriangleCount(tc.nx, tc.ny), model.TriangleCount())
		}
	}
}

func TestGenerateManifoldAndVolume(t *testing.T) {
	hf := field(5, 4, 2, []float64{
		12, 15, 11, 18, 14,
		13, 22, 19, 25, 16,
		11, 17, 30, 21, 15,
		12, 14, 16, 13, 12,
	})

	model, err := Generate(hf, 1.5, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	report := analysis.CheckManifold(model)
	if !report.IsClosed() {
		t.Fatalf("Expected a closed mesh, got %+v", report)
	}

	// The solid always contains the base slab below the lowest point.
	footprint := 8.0 * 6.0
	if volume := model.SignedVolume(); volume <= footprint*1 {
		t.Errorf("Expected volume above the base slab's %f, got %f", footprint*1, volume)
	}
}

func TestGenerateVertexFloor(t *testing.T) {
	hf := field(4, 4, 1, []float64{
		3, 9, 4, 7,
		8, 2, 6, 5,
		4, 7, 3, 9,
		6, 5, 8, 2,
	})
	baseThickness := 1.5

	model, err := Generate(hf, 2, baseThickness)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	topTriangles := 2 * 3 * 3
	for i := 0; i < topTriangles; i++ {
		triangle := model.Triangles[i]
		for _, z := range []float64{triangle.V1.Z, triangle.V2.Z, triangle.V3.Z} {
			if z < baseThickness-1e-9 {
				t.Fatalf("Top triangle %d has vertex below the base thickness: %f", i, z)
			}
		}
	}

	for i := topTriangles; i < 2*topTriangles; i++ {
		triangle := model.Triangles[i]
		for _, z := range []float64{triangle.V1.Z, triangle.V2.Z, triangle.V3.Z} {
			if z != 0 {
				t.Fatalf("Base triangle %d has vertex off the base plane: %f", i, z)
			}
		}
	}
}

func TestGenerateInvalidScale(t *testing.T) {
	hf := flatField(2, 2, 10)

	cases := []struct {
		name      string
		scale     float64
		thickness float64
	}{
		{"zero scale", 0, 1},
		{"negative scale", -1, 1},
		{"nan scale", math.NaN(), 1},
		{"negative thickness", 1, -0.1},
		{"nan thickness", 1, math.NaN()},
	}
	for _, tc := range cases {
		if _, err := Generate(hf, tc.scale, tc.thickness); !errors.Is(err, ErrInvalidScale) {
			t.Errorf("%s: expected ErrInvalidScale, got %v", tc.name, err)
		}
	}
}

func TestGenerateTooSmall(t *testing.T) {
	if _, err := Generate(flatField(1, 2, 10), 1, 1); err == nil {
		t.Error("Expected an error for a 1x2 heightfield")
	}
}

func TestGenerateZeroThickness(t *testing.T) {
	hf := field(3, 3, 1, []float64{
		5, 6, 7,
		6, 8, 9,
		7, 9, 11,
	})

	model, err := Generate(hf, 1, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if model.TriangleCount() != TriangleCount(3, 3) {
		t.Errorf("Expected %d triangles, got %d", TriangleCount(3, 3), model.TriangleCount())
	}
	if volume := model.SignedVolume(); volume <= 0 {
		t.Errorf("Expected positive volume, got %f", volume)
	}
}

func TestGenerateVerticalExaggeration(t *testing.T) {
	hf := field(2, 2, 1, []float64{10, 10, 10, 20})

	model, err := Generate(hf, 3, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	bounds := model.BoundingBox()
	// Peak at 3*(20-10)+1.
	if math.Abs(bounds.Max.Z-31) > 1e-10 {
		t.Errorf("Expected peak z 31, got %f", bounds.Max.Z)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	hf := field(3, 3, 1, []float64{
		1, 4, 2,
		5, 9, 3,
		2, 6, 4,
	})

	first, err := Generate(hf, 1.2, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := Generate(hf, 1.2, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var a, b bytes.Buffer
	if err := stl.WriteBinary(&a, first); err != nil {
		t.Fatalf("WriteBinary failed: %v", err)
	}
	if err := stl.WriteBinary(&b, second); err != nil {
		t.Fatalf("WriteBinary failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("Identical heightfields must serialize byte-identically")
	}
}
