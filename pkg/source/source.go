package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/terrastl/pkg/dem"
)

// ErrTileUnavailable is returned when a tile cannot be obtained: it does
// not exist in the backing store, or fetching it kept failing.
var ErrTileUnavailable = errors.New("source: tile unavailable")

// Source fetches and decodes one elevation tile. Implementations must
// honor context cancellation; callers treat every fetch as potentially
// slow.
type Source interface {
	Fetch(ctx context.Context, id TileID) (*dem.RasterTile, error)
}

// tileExtensions are the file endings a tile may be stored under,
// checked in order.
var tileExtensions = []string{".hgt", ".hgt.gz", ".hgt.zip", ".tif", ".tiff"}

// DirSource reads tiles from a local directory of pre-downloaded files.
// Files are matched by the SRTM tile name ("N47E013.hgt") or by the
// Copernicus fragment the S3 cache uses ("..._N47_00_E013_00_...").
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Fetch(ctx context.Context, id TileID) (*dem.RasterTile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := s.locate(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read tile %s: %w", name, err)
	}
	tile, err := dem.DecodeTile(name, data, id.OriginLat(), id.OriginLon())
	if err != nil {
		return nil, fmt.Errorf("failed to decode tile %s: %w", name, err)
	}
	return tile, nil
}

// locate finds the file holding the tile. Exact SRTM names win over a
// directory scan for Copernicus-style names.
func (s *DirSource) locate(id TileID) (string, error) {
	for _, ext := range tileExtensions {
		name := id.String() + ext
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			return name, nil
		}
	}

	fragment := copernicusFragment(id)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan tile directory %s: %w", s.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, fragment) {
			continue
		}
		for _, ext := range tileExtensions {
			if strings.HasSuffix(strings.ToLower(name), ext) {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no file for %s in %s", ErrTileUnavailable, id, s.dir)
}

// copernicusFragment is the part of a Copernicus object name that
// carries the tile coordinates, e.g. "N47_00_E013_00".
func copernicusFragment(id TileID) string {
	latHemi, lat := hemisphere(id.Lat, 'N', 'S')
	lonHemi, lon := hemisphere(id.Lon, 'E', 'W')
	return fmt.Sprintf("%c%02d_00_%c%03d_00", latHemi, lat, lonHemi, lon)
}
