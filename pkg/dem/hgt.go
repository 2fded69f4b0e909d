package dem

import (
	"encoding/binary"
	"fmt"
	"math"
)

// hgtVoid is the SRTM sentinel for an unmeasured sample.
const hgtVoid = -32768

// DecodeHGT parses raw SRTM-style elevation data: a square grid of
// big-endian int16 meters with no header. Published tiles are 1201 or
// 3601 samples per side; any square grid of at least 2x2 is accepted.
// The grid is node registered over a one-degree tile, so adjacent tiles
// share their boundary row and column. origin is the tile's northwest
// corner.
func DecodeHGT(data []byte, originLat, originLon float64) (*RasterTile, error) {
	if len(data) == 0 || len(data)%2 != 0 {
		return nil, fmt.Errorf("hgt: %d bytes is not a sequence of 16-bit samples", len(data))
	}
	count := len(data) / 2
	side := int(math.Round(math.Sqrt(float64(count))))
	if side < 2 || side*side != count {
		return nil, fmt.Errorf("hgt: %d samples do not form a square grid", count)
	}

	pixel := 1.0 / float64(side-1)
	samples := make([]float64, count)
	for i := 0; i < count; i++ {
		samples[i] = float64(int16(binary.BigEndian.Uint16(data[2*i:])))
	}

	return &RasterTile{
		OriginLat: originLat,
		OriginLon: originLon,
		PixelLat:  pixel,
		PixelLon:  pixel,
		Width:     side,
		Height:    side,
		Samples:   samples,
		NoData:    hgtVoid,
	}, nil
}
