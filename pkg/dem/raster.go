package dem

// RasterTile is one decoded elevation file: a node-registered grid of
// height samples in meters plus its georeferencing. Row 0 runs along the
// northern edge at OriginLat; rows advance south. Samples equal to NoData
// mark unmeasured cells. A tile is immutable once decoded.
type RasterTile struct {
	OriginLat float64 // latitude of the northwest sample
	OriginLon float64 // longitude of the northwest sample
	PixelLat  float64 // degrees of latitude between rows, positive
	PixelLon  float64 // degrees of longitude between columns, positive
	Width     int
	Height    int
	Samples   []float64 // row-major, north to south
	NoData    float64
}

// Sample returns the value at the given column and row.
func (t *RasterTile) Sample(col, row int) float64 {
	return t.Samples[row*t.Width+col]
}

// Bounds returns the geographic extent spanned by the sample nodes.
func (t *RasterTile) Bounds() BoundingBox {
	return BoundingBox{
		MinLat: t.OriginLat - float64(t.Height-1)*t.PixelLat,
		MaxLat: t.OriginLat,
		MinLon: t.OriginLon,
		MaxLon: t.OriginLon + float64(t.Width-1)*t.PixelLon,
	}
}
