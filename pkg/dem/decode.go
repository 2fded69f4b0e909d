package dem

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// DecodeTile decodes a fetched elevation file into a RasterTile. The
// format is picked from the file name: .hgt (raw SRTM), .tif/.tiff
// (grayscale GeoTIFF), with .gz and .zip containers unwrapped first.
// origin is the tile's northwest corner in degrees.
func DecodeTile(filename string, data []byte, originLat, originLon float64) (*RasterTile, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip container %s: %w", filename, err)
		}
		inner, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", filename, err)
		}
		if err := reader.Close(); err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", filename, err)
		}
		return DecodeTile(filename[:len(filename)-3], inner, originLat, originLon)

	case strings.HasSuffix(lower, ".zip"):
		archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to open zip container %s: %w", filename, err)
		}
		for _, entry := range archive.File {
			name := strings.ToLower(entry.Name)
			if !strings.HasSuffix(name, ".hgt") && !strings.HasSuffix(name, ".tif") && !strings.HasSuffix(name, ".tiff") {
				continue
			}
			file, err := entry.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open %s in %s: %w", entry.Name, filename, err)
			}
			inner, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read %s in %s: %w", entry.Name, filename, err)
			}
			return DecodeTile(path.Base(entry.Name), inner, originLat, originLon)
		}
		return nil, fmt.Errorf("no elevation file in zip container %s", filename)

	case strings.HasSuffix(lower, ".hgt"):
		return DecodeHGT(data, originLat, originLon)

	case strings.HasSuffix(lower, ".tif"), strings.HasSuffix(lower, ".tiff"):
		return DecodeGeoTIFF(data, originLat, originLon)

	default:
		return nil, fmt.Errorf("unsupported tile format: %s", filename)
	}
}
