package app

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/terrastl/pkg/analysis"
	"github.com/philipparndt/terrastl/pkg/dem"
	"github.com/philipparndt/terrastl/pkg/solid"
	"github.com/philipparndt/terrastl/pkg/source"
	"github.com/philipparndt/terrastl/pkg/stl"
)

type tileSourceFunc func(ctx context.Context, id source.TileID) (*dem.RasterTile, error)

func (f tileSourceFunc) Fetch(ctx context.Context, id source.TileID) (*dem.RasterTile, error) {
	return f(ctx, id)
}

// alpsTile is a 3x3 tile spanning one degree with varied terrain.
func alpsTile() *dem.RasterTile {
	return &dem.RasterTile{
		OriginLat: 48,
		OriginLon: 13,
		PixelLat:  0.5,
		PixelLon:  0.5,
		Width:     3,
		Height:    3,
		Samples: []float64{
			500, 620, 540,
			680, 900, 710,
			520, 640, 560,
		},
		NoData: -32768,
	}
}

func singleTileSource(t *testing.T) source.Source {
	t.Helper()
	return tileSourceFunc(func(ctx context.Context, id source.TileID) (*dem.RasterTile, error) {
		if id != (source.TileID{Lat: 47, Lon: 13}) {
			return nil, fmt.Errorf("%w: unexpected tile %s", source.ErrTileUnavailable, id)
		}
		return alpsTile(), nil
	})
}

func baseOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		Bounds:        dem.BoundingBox{MinLat: 47, MaxLat: 48, MinLon: 13, MaxLon: 14},
		ResolutionX:   4,
		ResolutionY:   4,
		MaxResolution: 4096,
		VerticalScale: 1,
		BaseThickness: 2,
		WidthMM:       100,
		OutputFile:    filepath.Join(t.TempDir(), "alps.stl"),
		Source:        singleTileSource(t),
		Concurrency:   2,
	}
}

func TestRunGeneratesModel(t *testing.T) {
	opts := baseOptions(t)

	result, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Tiles != 1 {
		t.Errorf("Expected 1 tile, got %d", result.Tiles)
	}
	if result.Triangles != solid.TriangleCount(4, 4) {
		t.Errorf("Expected %d triangles, got %d", solid.TriangleCount(4, 4), result.Triangles)
	}

	// The latitude span is the longer side and must map to 100mm.
	if math.Abs(result.SizeY-100) > 1e-9 {
		t.Errorf("Expected the footprint scaled to 100mm, got %f", result.SizeY)
	}
	if result.SizeX >= result.SizeY {
		t.Errorf("Expected the longitude span to be shorter at 47.5N, got %f x %f", result.SizeX, result.SizeY)
	}
	if result.Volume <= 0 {
		t.Errorf("Expected positive volume, got %f", result.Volume)
	}

	model, err := stl.Parse(opts.OutputFile)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if model.TriangleCount() != result.Triangles {
		t.Errorf("Expected %d triangles in the file, got %d", result.Triangles, model.TriangleCount())
	}
	if report := analysis.CheckManifold(model); !report.IsClosed() {
		t.Errorf("Expected a closed mesh, got %+v", report)
	}
}

func TestRunDeterministic(t *testing.T) {
	opts := baseOptions(t)

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	first, err := os.ReadFile(opts.OutputFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	second, err := os.ReadFile(opts.OutputFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Expected byte-identical output, got %d and %d bytes", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Output differs at byte %d", i)
		}
	}
}

func TestRunRetriesCoverageGap(t *testing.T) {
	calls := 0
	partial := alpsTile()
	partial.Height = 2
	partial.Samples = partial.Samples[:6]

	opts := baseOptions(t)
	opts.Source = tileSourceFunc(func(ctx context.Context, id source.TileID) (*dem.RasterTile, error) {
		calls++
		if calls == 1 {
			return partial, nil
		}
		return alpsTile(), nil
	})

	result, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected a second fetch to close the gap, got %d calls", calls)
	}
	if result.Triangles != solid.TriangleCount(4, 4) {
		t.Errorf("Expected %d triangles, got %d", solid.TriangleCount(4, 4), result.Triangles)
	}
}

func TestRunFailsWhenTileUnavailable(t *testing.T) {
	opts := baseOptions(t)
	opts.Source = tileSourceFunc(func(ctx context.Context, id source.TileID) (*dem.RasterTile, error) {
		return nil, fmt.Errorf("%w: gone", source.ErrTileUnavailable)
	})

	if _, err := Run(context.Background(), opts); err == nil {
		t.Fatal("Expected Run to fail")
	}
	if _, err := os.Stat(opts.OutputFile); !os.IsNotExist(err) {
		t.Error("Expected no output file after a failed run")
	}
}

func TestRunFailsOnInvalidScale(t *testing.T) {
	opts := baseOptions(t)
	opts.VerticalScale = 0

	if _, err := Run(context.Background(), opts); err == nil {
		t.Fatal("Expected Run to fail for zero vertical scale")
	}
	if _, err := os.Stat(opts.OutputFile); !os.IsNotExist(err) {
		t.Error("Expected no output file after a failed run")
	}
}

func TestRunClampsResolution(t *testing.T) {
	opts := baseOptions(t)
	opts.ResolutionX = 64
	opts.ResolutionY = 64
	opts.MaxResolution = 3

	result, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Triangles != solid.TriangleCount(3, 3) {
		t.Errorf("Expected the clamped %d triangles, got %d", solid.TriangleCount(3, 3), result.Triangles)
	}
}

func TestRunAllNoDataBecomesSeaLevelSlab(t *testing.T) {
	opts := baseOptions(t)
	opts.Source = tileSourceFunc(func(ctx context.Context, id source.TileID) (*dem.RasterTile, error) {
		tile := alpsTile()
		for i := range tile.Samples {
			tile.Samples[i] = tile.NoData
		}
		return tile, nil
	})

	result, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// A flat sea-level slab: footprint times the base thickness.
	wantVolume := result.SizeX * result.SizeY * opts.BaseThickness
	if math.Abs(result.Volume-wantVolume) > 1e-6 {
		t.Errorf("Expected slab volume %f, got %f", wantVolume, result.Volume)
	}

	model, err := stl.Parse(opts.OutputFile)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if report := analysis.CheckManifold(model); !report.IsClosed() {
		t.Errorf("Expected a closed slab, got %+v", report)
	}
}
