package dem

import (
	"bytes"
	"fmt"
	"image"

	"golang.org/x/image/tiff"
)

// DecodeGeoTIFF parses a grayscale TIFF elevation raster. Sample values
// are meters; 16-bit values above 32767 are reinterpreted as negative
// (the signed encoding DEM products use for depressions below sea
// level). Georeferencing is taken from the tile identifier, not the
// file: the grid is node registered over a one-degree tile with origin
// at the northwest corner.
func DecodeGeoTIFF(data []byte, originLat, originLon float64) (*RasterTile, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("geotiff: failed to decode: %w", err)
	}

	size := img.Bounds().Size()
	if size.X < 2 || size.Y < 2 {
		return nil, fmt.Errorf("geotiff: grid %dx%d is too small", size.X, size.Y)
	}

	samples := make([]float64, size.X*size.Y)
	switch gray := img.(type) {
	case *image.Gray16:
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				value := int32(gray.Gray16At(x, y).Y)
				if value > 32767 {
					value -= 65536
				}
				samples[y*size.X+x] = float64(value)
			}
		}
	case *image.Gray:
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				samples[y*size.X+x] = float64(gray.GrayAt(x, y).Y)
			}
		}
	default:
		return nil, fmt.Errorf("geotiff: unsupported pixel format %T", img)
	}

	return &RasterTile{
		OriginLat: originLat,
		OriginLon: originLon,
		PixelLat:  1.0 / float64(size.Y-1),
		PixelLon:  1.0 / float64(size.X-1),
		Width:     size.X,
		Height:    size.Y,
		Samples:   samples,
		NoData:    hgtVoid,
	}, nil
}
