package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/philipparndt/terrastl/pkg/dem"
)

// Copernicus DEM distribution buckets. Both are public; requests are
// made without credentials.
const (
	Bucket30m = "copernicus-dem-30m"
	Bucket90m = "copernicus-dem-90m"

	copernicusRegion = "eu-central-1"
)

// s3API is the slice of the S3 client the source uses.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures an S3Source.
type S3Options struct {
	// Product is the grid spacing in meters, 30 or 90. Defaults to 30.
	Product int
	// Bucket overrides the default bucket for the product.
	Bucket string
	// CacheDir, when set, keeps downloaded objects on disk and skips
	// the download for tiles already present.
	CacheDir string
}

// S3Source fetches Copernicus DEM tiles from the public distribution
// buckets. Object keys are discovered by listing the tile's name
// prefix, mirroring the upstream layout
// Copernicus_DSM_COG_10_N47_00_E013_00_DEM/... .
type S3Source struct {
	client   s3API
	bucket   string
	code     int
	cacheDir string
}

// NewS3Source builds a source talking to the public Copernicus buckets
// with anonymous credentials.
func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	product := opts.Product
	if product == 0 {
		product = 30
	}
	if product != 30 && product != 90 {
		return nil, fmt.Errorf("unsupported product resolution %dm, expected 30 or 90", product)
	}

	bucket := opts.Bucket
	if bucket == "" {
		bucket = Bucket30m
		if product == 90 {
			bucket = Bucket90m
		}
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(copernicusRegion),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure S3 client: %w", err)
	}

	return &S3Source{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		code:     resolutionCode(product),
		cacheDir: opts.CacheDir,
	}, nil
}

// resolutionCode maps the product spacing to the code embedded in
// Copernicus object names: 10 for the 30m product, 30 for 90m.
func resolutionCode(product int) int {
	if product == 90 {
		return 30
	}
	return 10
}

func (s *S3Source) Fetch(ctx context.Context, id TileID) (*dem.RasterTile, error) {
	key, err := s.findKey(ctx, id)
	if err != nil {
		return nil, err
	}

	data, cached := s.readCache(key)
	if !cached {
		data, err = s.download(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := s.writeCache(key, data); err != nil {
			return nil, err
		}
	}

	tile, err := dem.DecodeTile(path.Base(key), data, id.OriginLat(), id.OriginLon())
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return tile, nil
}

// ListKeys returns all object keys stored under the tile's prefix.
func (s *S3Source) ListKeys(ctx context.Context, id TileID) ([]string, error) {
	prefix := id.CopernicusName(s.code) + "/"

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}
	return keys, nil
}

// findKey locates the elevation object for the tile.
func (s *S3Source) findKey(ctx context.Context, id TileID) (string, error) {
	keys, err := s.ListKeys(ctx, id)
	if err != nil {
		return "", err
	}
	for _, key := range keys {
		lower := strings.ToLower(key)
		for _, ext := range tileExtensions {
			if strings.HasSuffix(lower, ext) {
				return key, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no object for %s in s3://%s", ErrTileUnavailable, id, s.bucket)
}

func (s *S3Source) download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// cacheName flattens an object key into a file name, the same renaming
// the upstream download tooling uses.
func cacheName(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

func (s *S3Source) readCache(key string) ([]byte, bool) {
	if s.cacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(s.cacheDir, cacheName(key)))
	if err != nil {
		return nil, false
	}
	return data, true
}

// writeCache stores a downloaded object. The write goes to a temp file
// first and is renamed into place, so an interrupted run never leaves a
// truncated tile to poison later runs.
func (s *S3Source) writeCache(key string, data []byte) error {
	if s.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	name := cacheName(key)
	tmp, err := os.CreateTemp(s.cacheDir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.cacheDir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}
