// Package source locates and fetches the elevation tiles covering a
// requested region. Tiles are identified by the integer degree of their
// southwest corner, the convention shared by SRTM file names and the
// Copernicus DEM object layout.
package source

import (
	"fmt"
	"math"

	"github.com/philipparndt/terrastl/pkg/dem"
)

// TileID addresses one 1x1 degree tile by its southwest corner.
type TileID struct {
	Lat int
	Lon int
}

// TileAt returns the tile containing the given point. Floor keeps the
// mapping correct on the southern and western hemispheres, where
// truncation would shift by one tile.
func TileAt(lat, lon float64) TileID {
	return TileID{
		Lat: int(math.Floor(lat)),
		Lon: int(math.Floor(lon)),
	}
}

// String formats the tile in SRTM style, e.g. "N47E013" or "S04W072".
func (t TileID) String() string {
	latHemi, lat := hemisphere(t.Lat, 'N', 'S')
	lonHemi, lon := hemisphere(t.Lon, 'E', 'W')
	return fmt.Sprintf("%c%02d%c%03d", latHemi, lat, lonHemi, lon)
}

// CopernicusName formats the tile as a Copernicus DEM object prefix,
// e.g. "Copernicus_DSM_COG_10_N47_00_E013_00_DEM". code is the grid
// spacing in arc seconds tenths: 10 for the 30m product, 30 for 90m.
func (t TileID) CopernicusName(code int) string {
	latHemi, lat := hemisphere(t.Lat, 'N', 'S')
	lonHemi, lon := hemisphere(t.Lon, 'E', 'W')
	return fmt.Sprintf("Copernicus_DSM_COG_%d_%c%02d_00_%c%03d_00_DEM", code, latHemi, lat, lonHemi, lon)
}

// Bounds returns the geographic extent of the tile.
func (t TileID) Bounds() dem.BoundingBox {
	return dem.BoundingBox{
		MinLat: float64(t.Lat),
		MaxLat: float64(t.Lat + 1),
		MinLon: float64(t.Lon),
		MaxLon: float64(t.Lon + 1),
	}
}

// OriginLat returns the latitude of the tile's northwest corner, where
// decoded rasters anchor their first row.
func (t TileID) OriginLat() float64 {
	return float64(t.Lat + 1)
}

// OriginLon returns the longitude of the tile's northwest corner.
func (t TileID) OriginLon() float64 {
	return float64(t.Lon)
}

// TilesFor returns the tiles covering the bounding box, south to north
// then west to east. A box edge lying exactly on a tile boundary does
// not pull in the next tile: node-registered tiles include their
// boundary row and column.
func TilesFor(bounds dem.BoundingBox) []TileID {
	latStart := int(math.Floor(bounds.MinLat))
	latEnd := int(math.Ceil(bounds.MaxLat)) - 1
	lonStart := int(math.Floor(bounds.MinLon))
	lonEnd := int(math.Ceil(bounds.MaxLon)) - 1
	if latEnd < latStart {
		latEnd = latStart
	}
	if lonEnd < lonStart {
		lonEnd = lonStart
	}

	tiles := make([]TileID, 0, (latEnd-latStart+1)*(lonEnd-lonStart+1))
	for lat := latStart; lat <= latEnd; lat++ {
		for lon := lonStart; lon <= lonEnd; lon++ {
			tiles = append(tiles, TileID{Lat: lat, Lon: lon})
		}
	}
	return tiles
}

func hemisphere(value int, positive, negative byte) (byte, int) {
	if value < 0 {
		return negative, -value
	}
	return positive, value
}
