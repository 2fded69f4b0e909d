// Package app wires the pipeline stages together: resolve the region to
// tiles, fetch them, assemble the mosaic, sample the heightfield,
// generate the solid and serialize it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/philipparndt/terrastl/pkg/analysis"
	"github.com/philipparndt/terrastl/pkg/dem"
	"github.com/philipparndt/terrastl/pkg/solid"
	"github.com/philipparndt/terrastl/pkg/source"
	"github.com/philipparndt/terrastl/pkg/stl"
)

// Options carries one run's parameters, already resolved from config
// and flags.
type Options struct {
	Bounds        dem.BoundingBox
	ResolutionX   int
	ResolutionY   int
	MaxResolution int
	VerticalScale float64
	BaseThickness float64
	// WidthMM maps the longer footprint side to this many millimeters.
	// Zero keeps the heightfield in meters.
	WidthMM    float64
	OutputFile string
	Source     source.Source
	// Concurrency bounds parallel tile fetches.
	Concurrency int
	Logger      *slog.Logger
}

// Result summarizes a completed run.
type Result struct {
	OutputFile string
	Tiles      int
	Triangles  int
	SizeX      float64
	SizeY      float64
	SizeZ      float64
	Volume     float64
}

// Run executes the full pipeline. It either writes the complete model
// to Options.OutputFile or returns an error; a failed run leaves no
// output file behind.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Bounds.Validate(); err != nil {
		return nil, err
	}
	if opts.Source == nil {
		return nil, errors.New("no tile source configured")
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	ids := source.TilesFor(opts.Bounds)
	logger.Info("resolving region", "bounds", opts.Bounds.String(), "tiles", len(ids))

	tiles, err := fetchTiles(ctx, opts.Source, ids, concurrency, logger)
	if err != nil {
		return nil, err
	}

	mosaic, err := dem.AssembleMosaic(opts.Bounds, tiles)
	var coverage *dem.IncompleteCoverageError
	if errors.As(err, &coverage) {
		// A resolver gap: fetch the tile that should cover the missing
		// cell and assemble once more.
		gap := source.TileAt(coverage.Lat, coverage.Lon)
		logger.Warn("coverage gap, fetching missing tile", "tile", gap.String(), "cells", coverage.MissingCells)
		tile, fetchErr := opts.Source.Fetch(ctx, gap)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to close coverage gap: %w", fetchErr)
		}
		mosaic, err = dem.AssembleMosaic(opts.Bounds, append(tiles, tile))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to assemble mosaic: %w", err)
	}
	logger.Info("assembled mosaic", "width", mosaic.Width, "height", mosaic.Height)

	nx, ny := opts.ResolutionX, opts.ResolutionY
	if opts.MaxResolution > 0 {
		if nx > opts.MaxResolution {
			logger.Warn("clamping resolution", "axis", "x", "requested", nx, "max", opts.MaxResolution)
			nx = opts.MaxResolution
		}
		if ny > opts.MaxResolution {
			logger.Warn("clamping resolution", "axis", "y", "requested", ny, "max", opts.MaxResolution)
			ny = opts.MaxResolution
		}
	}

	hf, err := dem.SampleHeightfield(mosaic, opts.Bounds, nx, ny)
	if err != nil {
		return nil, fmt.Errorf("failed to sample heightfield: %w", err)
	}
	if hf.IsFlat() {
		logger.Warn("heightfield is flat, generating a plain slab", "z", hf.Z[0])
	}

	if opts.WidthMM > 0 {
		footprintX := float64(hf.Width-1) * hf.CellSizeX
		footprintY := float64(hf.Height-1) * hf.CellSizeY
		longest := footprintX
		if footprintY > longest {
			longest = footprintY
		}
		hf = hf.Scaled(opts.WidthMM / longest)
	}

	model, err := solid.Generate(hf, opts.VerticalScale, opts.BaseThickness)
	if err != nil {
		return nil, fmt.Errorf("failed to generate solid: %w", err)
	}
	model.Name = modelName(opts.OutputFile)

	// A gap in the surface would print as garbage; refuse to write one.
	if report := analysis.CheckManifold(model); !report.IsClosed() {
		return nil, fmt.Errorf("generated mesh is not closed: %d boundary, %d non-manifold edges",
			report.BoundaryEdges, report.NonManifoldEdges)
	}

	if err := stl.WriteFile(opts.OutputFile, model); err != nil {
		return nil, err
	}

	bounds := model.BoundingBox()
	size := bounds.Size()
	logger.Info("wrote model", "file", opts.OutputFile, "triangles", model.TriangleCount(),
		"size_x", size.X, "size_y", size.Y, "size_z", size.Z)

	return &Result{
		OutputFile: opts.OutputFile,
		Tiles:      len(ids),
		Triangles:  model.TriangleCount(),
		SizeX:      size.X,
		SizeY:      size.Y,
		SizeZ:      size.Z,
		Volume:     model.SignedVolume(),
	}, nil
}

// fetchTiles downloads and decodes all tiles in parallel, keeping
// resolver order so overlap resolution stays deterministic.
func fetchTiles(ctx context.Context, src source.Source, ids []source.TileID, concurrency int, logger *slog.Logger) ([]*dem.RasterTile, error) {
	tiles := make([]*dem.RasterTile, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			logger.Info("fetching tile", "tile", id.String())
			tile, err := src.Fetch(gctx, id)
			if err != nil {
				return fmt.Errorf("tile %s: %w", id, err)
			}
			tiles[i] = tile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}

// modelName derives the solid's name from the output file.
func modelName(output string) string {
	name := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	if name == "" || name == "." {
		return "terrain"
	}
	return name
}
