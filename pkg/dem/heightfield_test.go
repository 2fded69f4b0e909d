package dem

import (
	"errors"
	"math"
	"testing"
)

func testMosaic() *Mosaic {
	return &Mosaic{
		Bounds:   BoundingBox{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1},
		PixelLat: 0.5,
		PixelLon: 0.5,
		Width:    3,
		Height:   3,
		Samples: []float64{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		},
	}
}

func TestSampleHeightfieldReproducesMosaicNodes(t *testing.T) {
	mosaic := testMosaic()

	hf, err := SampleHeightfield(mosaic, mosaic.Bounds, 3, 3)
	if err != nil {
		t.Fatalf("SampleHeightfield failed: %v", err)
	}

	// Heightfield row 0 is the southern edge, mosaic row 0 the northern.
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			want := mosaic.Sample(col, 2-row)
			if got := hf.At(col, row); math.Abs(got-want) > 1e-10 {
				t.Errorf("Cell (%d, %d): expected %f, got %f", col, row, want, got)
			}
		}
	}
}

func TestSampleHeightfieldBilinearMidpoint(t *testing.T) {
	mosaic := &Mosaic{
		Bounds:   BoundingBox{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1},
		PixelLat: 1,
		PixelLon: 1,
		Width:    2,
		Height:   2,
		Samples: []float64{
			10, 20,
			30, 40,
		},
	}

	hf, err := SampleHeightfield(mosaic, mosaic.Bounds, 3, 3)
	if err != nil {
		t.Fatalf("SampleHeightfield failed: %v", err)
	}

	if got := hf.At(1, 1); math.Abs(got-25) > 1e-10 {
		t.Errorf("Expected bilinear center 25, got %f", got)
	}
	if got := hf.At(0, 2); math.Abs(got-10) > 1e-10 {
		t.Errorf("Expected NW corner 10, got %f", got)
	}
	if got := hf.At(1, 2); math.Abs(got-15) > 1e-10 {
		t.Errorf("Expected northern edge midpoint 15, got %f", got)
	}
}

func TestSampleHeightfieldCellSize(t *testing.T) {
	mosaic := testMosaic()
	mosaic.Bounds = BoundingBox{MinLat: -0.5, MaxLat: 0.5, MinLon: 0, MaxLon: 1}

	hf, err := SampleHeightfield(mosaic, mosaic.Bounds, 3, 3)
	if err != nil {
		t.Fatalf("SampleHeightfield failed: %v", err)
	}

	// Mean latitude 0: a half degree of longitude is 55660 m.
	if math.Abs(hf.CellSizeX-55660) > 1e-6 {
		t.Errorf("Expected cell size x 55660, got %f", hf.CellSizeX)
	}
	if math.Abs(hf.CellSizeY-55270) > 1e-6 {
		t.Errorf("Expected cell size y 55270, got %f", hf.CellSizeY)
	}
}

func TestSampleHeightfieldTooCoarse(t *testing.T) {
	mosaic := testMosaic()

	if _, err := SampleHeightfield(mosaic, mosaic.Bounds, 1, 3); !errors.Is(err, ErrResolutionTooCoarse) {
		t.Errorf("Expected ErrResolutionTooCoarse for nx=1, got %v", err)
	}
	if _, err := SampleHeightfield(mosaic, mosaic.Bounds, 3, 1); !errors.Is(err, ErrResolutionTooCoarse) {
		t.Errorf("Expected ErrResolutionTooCoarse for ny=1, got %v", err)
	}
}

func TestHeightfieldScaled(t *testing.T) {
	hf := &Heightfield{
		Width:     2,
		Height:    2,
		CellSizeX: 100,
		CellSizeY: 200,
		Z:         []float64{10, 20, 30, 40},
	}

	scaled := hf.Scaled(0.5)
	if scaled.CellSizeX != 50 || scaled.CellSizeY != 100 {
		t.Errorf("Expected cell sizes 50 and 100, got %f and %f", scaled.CellSizeX, scaled.CellSizeY)
	}
	for i, want := range []float64{5, 10, 15, 20} {
		if scaled.Z[i] != want {
			t.Errorf("Z[%d]: expected %f, got %f", i, want, scaled.Z[i])
		}
	}
	if hf.Z[0] != 10 || hf.CellSizeX != 100 {
		t.Error("Scaled must not modify the original heightfield")
	}
}

func TestHeightfieldMinMaxFlat(t *testing.T) {
	hf := &Heightfield{Width: 2, Height: 2, CellSizeX: 1, CellSizeY: 1, Z: []float64{3, 1, 4, 1}}
	if hf.MinZ() != 1 {
		t.Errorf("Expected min 1, got %f", hf.MinZ())
	}
	if hf.MaxZ() != 4 {
		t.Errorf("Expected max 4, got %f", hf.MaxZ())
	}
	if hf.IsFlat() {
		t.Error("Expected a varied heightfield not to be flat")
	}

	flat := &Heightfield{Width: 2, Height: 2, CellSizeX: 1, CellSizeY: 1, Z: []float64{7, 7, 7, 7}}
	if !flat.IsFlat() {
		t.Error("Expected an all-equal heightfield to be flat")
	}
}
