package dem

import (
	"errors"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Equirectangular scale factors. Valid as a local approximation for
// regions up to a few tens of kilometers across.
const (
	MetersPerDegreeLat        = 110540.0
	MetersPerDegreeLonEquator = 111320.0
)

// ErrResolutionTooCoarse is returned when the requested grid cannot form
// a single quad.
var ErrResolutionTooCoarse = errors.New("dem: resolution too coarse, need at least a 2x2 grid")

// Heightfield is a regular grid of heights in a local planar frame:
// x grows east, y grows north, z up, all in meters. Row 0 is the
// southern edge so the frame stays right-handed. Produced by sampling
// a Mosaic; immutable afterwards.
type Heightfield struct {
	Width     int
	Height    int
	CellSizeX float64 // meters between columns
	CellSizeY float64 // meters between rows
	Z         []float64
}

// At returns the height at the given column and row.
func (h *Heightfield) At(col, row int) float64 {
	return h.Z[row*h.Width+col]
}

// MinZ returns the smallest height in the grid.
func (h *Heightfield) MinZ() float64 {
	min := h.Z[0]
	for _, z := range h.Z[1:] {
		if z < min {
			min = z
		}
	}
	return min
}

// MaxZ returns the largest height in the grid.
func (h *Heightfield) MaxZ() float64 {
	max := h.Z[0]
	for _, z := range h.Z[1:] {
		if z > max {
			max = z
		}
	}
	return max
}

// IsFlat reports whether all heights are equal. A flat heightfield still
// generates a valid slab; callers may want to log it.
func (h *Heightfield) IsFlat() bool {
	for _, z := range h.Z[1:] {
		if z != h.Z[0] {
			return false
		}
	}
	return true
}

// Scaled returns a copy with all lengths multiplied by factor: cell
// sizes and heights alike, so the terrain keeps its proportions. Used to
// map a real-world footprint onto a print bed.
func (h *Heightfield) Scaled(factor float64) *Heightfield {
	scaled := &Heightfield{
		Width:     h.Width,
		Height:    h.Height,
		CellSizeX: h.CellSizeX * factor,
		CellSizeY: h.CellSizeY * factor,
		Z:         make([]float64, len(h.Z)),
	}
	for i, z := range h.Z {
		scaled.Z[i] = z * factor
	}
	return scaled
}

// SampleHeightfield resamples the mosaic to exactly nx by ny samples
// covering bounds, borders included. Interpolation is bilinear and
// clamps at the mosaic border. Rows are computed in parallel; the result
// is deterministic because every row writes a disjoint slice.
func SampleHeightfield(m *Mosaic, bounds BoundingBox, nx, ny int) (*Heightfield, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if nx < 2 || ny < 2 {
		return nil, ErrResolutionTooCoarse
	}

	meanLat := (bounds.MinLat + bounds.MaxLat) / 2
	metersPerDegreeLon := MetersPerDegreeLonEquator * math.Cos(meanLat*math.Pi/180)

	stepLat := (bounds.MaxLat - bounds.MinLat) / float64(ny-1)
	stepLon := (bounds.MaxLon - bounds.MinLon) / float64(nx-1)

	hf := &Heightfield{
		Width:     nx,
		Height:    ny,
		CellSizeX: stepLon * metersPerDegreeLon,
		CellSizeY: stepLat * MetersPerDegreeLat,
		Z:         make([]float64, nx*ny),
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for row := 0; row < ny; row++ {
		out := hf.Z[row*nx : (row+1)*nx]
		lat := bounds.MinLat + float64(row)*stepLat
		g.Go(func() error {
			for col := 0; col < nx; col++ {
				lon := bounds.MinLon + float64(col)*stepLon
				out[col] = m.bilinear(lat, lon)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return hf, nil
}

// bilinear interpolates the mosaic at a geographic point. Points outside
// the mosaic clamp to its border.
func (m *Mosaic) bilinear(lat, lon float64) float64 {
	row := (m.Bounds.MaxLat - lat) / m.PixelLat
	col := (lon - m.Bounds.MinLon) / m.PixelLon
	row = clamp(row, 0, float64(m.Height-1))
	col = clamp(col, 0, float64(m.Width-1))

	r0 := int(math.Floor(row))
	c0 := int(math.Floor(col))
	r1 := r0 + 1
	if r1 > m.Height-1 {
		r1 = m.Height - 1
	}
	c1 := c0 + 1
	if c1 > m.Width-1 {
		c1 = m.Width - 1
	}
	fr := row - float64(r0)
	fc := col - float64(c0)

	top := m.Sample(c0, r0)*(1-fc) + m.Sample(c1, r0)*fc
	bottom := m.Sample(c0, r1)*(1-fc) + m.Sample(c1, r1)*fc
	return top*(1-fr) + bottom*fr
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
