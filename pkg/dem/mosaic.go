package dem

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoTiles is returned when the assembler is given an empty tile set.
var ErrNoTiles = errors.New("dem: no tiles available")

// IncompleteCoverageError reports that cells inside the requested bounds
// were not covered by any supplied tile. Lat and Lon locate one missing
// cell so the caller can derive the tile that should have covered it.
type IncompleteCoverageError struct {
	MissingCells int
	Lat          float64
	Lon          float64
}

func (e *IncompleteCoverageError) Error() string {
	return fmt.Sprintf("dem: incomplete coverage: %d cells missing, first at (%g, %g)",
		e.MissingCells, e.Lat, e.Lon)
}

// Mosaic is a contiguous elevation grid composited from one or more
// tiles. Every cell holds a resolved height in meters; no-data samples
// and uncovered slack are filled with 0 (sea level) during assembly.
// Row 0 runs along Bounds.MaxLat; rows advance south.
type Mosaic struct {
	Bounds   BoundingBox
	PixelLat float64
	PixelLon float64
	Width    int
	Height   int
	Samples  []float64
}

// Sample returns the value at the given column and row.
func (m *Mosaic) Sample(col, row int) float64 {
	return m.Samples[row*m.Width+col]
}

// pixelTolerance bounds the relative disagreement allowed between tile
// pixel sizes before they are considered different products.
const pixelTolerance = 1e-6

// AssembleMosaic composites tiles into one grid spanning at least bounds.
// The grid lies on the lattice of the first tile, extended outward to
// enclose bounds, so tile samples are placed without resampling. Where
// tiles overlap the last tile in the slice wins; adjacent tiles of one
// product agree on their shared boundary, so order only matters for
// genuinely conflicting inputs. Cells inside bounds that no tile covers
// make the assembly fail with an IncompleteCoverageError.
func AssembleMosaic(bounds BoundingBox, tiles []*RasterTile) (*Mosaic, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if len(tiles) == 0 {
		return nil, ErrNoTiles
	}

	pixelLat := tiles[0].PixelLat
	pixelLon := tiles[0].PixelLon
	for _, tile := range tiles {
		if relativeDiff(tile.PixelLat, pixelLat) > pixelTolerance ||
			relativeDiff(tile.PixelLon, pixelLon) > pixelTolerance {
			return nil, fmt.Errorf("dem: mixed tile resolutions: (%g, %g) and (%g, %g)",
				pixelLat, pixelLon, tile.PixelLat, tile.PixelLon)
		}
	}

	// Snap the mosaic extent to the lattice anchored at the first tile's
	// origin so every tile sample lands exactly on a mosaic cell.
	anchorLat := tiles[0].OriginLat
	anchorLon := tiles[0].OriginLon
	north := anchorLat + math.Ceil((bounds.MaxLat-anchorLat)/pixelLat-latticeEps)*pixelLat
	south := anchorLat + math.Floor((bounds.MinLat-anchorLat)/pixelLat+latticeEps)*pixelLat
	west := anchorLon + math.Floor((bounds.MinLon-anchorLon)/pixelLon+latticeEps)*pixelLon
	east := anchorLon + math.Ceil((bounds.MaxLon-anchorLon)/pixelLon-latticeEps)*pixelLon

	width := int(math.Round((east-west)/pixelLon)) + 1
	height := int(math.Round((north-south)/pixelLat)) + 1

	mosaic := &Mosaic{
		Bounds:   BoundingBox{MinLat: south, MaxLat: north, MinLon: west, MaxLon: east},
		PixelLat: pixelLat,
		PixelLon: pixelLon,
		Width:    width,
		Height:   height,
		Samples:  make([]float64, width*height),
	}
	covered := make([]bool, width*height)

	for _, tile := range tiles {
		rowOffset := int(math.Round((north - tile.OriginLat) / pixelLat))
		colOffset := int(math.Round((tile.OriginLon - west) / pixelLon))
		for tr := 0; tr < tile.Height; tr++ {
			row := rowOffset + tr
			if row < 0 || row >= height {
				continue
			}
			for tc := 0; tc < tile.Width; tc++ {
				col := colOffset + tc
				if col < 0 || col >= width {
					continue
				}
				value := tile.Sample(tc, tr)
				if value == tile.NoData || math.IsNaN(value) {
					value = 0
				}
				mosaic.Samples[row*width+col] = value
				covered[row*width+col] = true
			}
		}
	}

	missing := 0
	var missLat, missLon float64
	for row := 0; row < height; row++ {
		lat := north - float64(row)*pixelLat
		for col := 0; col < width; col++ {
			if covered[row*width+col] {
				continue
			}
			lon := west + float64(col)*pixelLon
			if lat >= bounds.MinLat-coordEps && lat <= bounds.MaxLat+coordEps &&
				lon >= bounds.MinLon-coordEps && lon <= bounds.MaxLon+coordEps {
				if missing == 0 {
					missLat, missLon = lat, lon
				}
				missing++
			}
			// Uncovered slack outside the requested bounds stays 0.
		}
	}
	if missing > 0 {
		return nil, &IncompleteCoverageError{MissingCells: missing, Lat: missLat, Lon: missLon}
	}

	return mosaic, nil
}

// latticeEps absorbs rounding when the requested bounds already lie on a
// lattice line, keeping Ceil/Floor from stepping one cell too far.
const latticeEps = 1e-9

// coordEps is the slack used when classifying a cell as inside the
// requested bounds.
const coordEps = 1e-9

func relativeDiff(a, b float64) float64 {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return 0
	}
	return math.Abs(a-b) / scale
}
