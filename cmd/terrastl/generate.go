package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/philipparndt/terrastl/internal/app"
	"github.com/philipparndt/terrastl/internal/config"
	"github.com/philipparndt/terrastl/internal/logging"
	"github.com/philipparndt/terrastl/pkg/dem"
	"github.com/philipparndt/terrastl/pkg/source"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	genConfig        string
	genLat           float64
	genLon           float64
	genRadiusKM      float64
	genMinLat        float64
	genMaxLat        float64
	genMinLon        float64
	genMaxLon        float64
	genOutput        string
	genVerticalScale float64
	genBaseThickness float64
	genWidthMM       float64
	genResolution    int
	genProduct       int
	genTileDir       string
	genCacheDir      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a printable terrain model for a region",
	Long: `Fetch elevation tiles covering the requested region, assemble them
into a heightfield, and write a watertight binary STL.

The region is either a point with a radius (--lat, --lon, --radius-km)
or an explicit bounding box (--min-lat, --max-lat, --min-lon, --max-lon).`,
	Run: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genConfig, "config", "", "Path to a YAML config file")
	generateCmd.Flags().Float64Var(&genLat, "lat", 0, "Latitude of the region center")
	generateCmd.Flags().Float64Var(&genLon, "lon", 0, "Longitude of the region center")
	generateCmd.Flags().Float64Var(&genRadiusKM, "radius-km", 0, "Radius around the center in kilometers")
	generateCmd.Flags().Float64Var(&genMinLat, "min-lat", 0, "Southern edge of the bounding box")
	generateCmd.Flags().Float64Var(&genMaxLat, "max-lat", 0, "Northern edge of the bounding box")
	generateCmd.Flags().Float64Var(&genMinLon, "min-lon", 0, "Western edge of the bounding box")
	generateCmd.Flags().Float64Var(&genMaxLon, "max-lon", 0, "Eastern edge of the bounding box")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "terrain.stl", "Output STL file")
	generateCmd.Flags().Float64Var(&genVerticalScale, "vertical-scale", 0, "Vertical exaggeration factor")
	generateCmd.Flags().Float64Var(&genBaseThickness, "base-thickness", 0, "Base thickness in millimeters")
	generateCmd.Flags().Float64Var(&genWidthMM, "width-mm", 0, "Length of the longer footprint side in millimeters")
	generateCmd.Flags().IntVarP(&genResolution, "resolution", "r", 0, "Samples along each axis of the heightfield")
	generateCmd.Flags().IntVar(&genProduct, "product", 0, "DEM grid spacing in meters, 30 or 90")
	generateCmd.Flags().StringVar(&genTileDir, "tile-dir", "", "Read tiles from a local directory instead of S3")
	generateCmd.Flags().StringVar(&genCacheDir, "cache-dir", "", "Cache downloaded tiles in this directory")

	generateCmd.MarkFlagsRequiredTogether("lat", "lon", "radius-km")
	generateCmd.MarkFlagsRequiredTogether("min-lat", "max-lat", "min-lon", "max-lon")
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(genConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyGenerateFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()

	bounds, err := regionBounds(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	src, err := buildSource(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := app.Run(ctx, app.Options{
		Bounds:        bounds,
		ResolutionX:   cfg.Model.ResolutionX,
		ResolutionY:   cfg.Model.ResolutionY,
		MaxResolution: cfg.Model.MaxResolution,
		VerticalScale: cfg.Model.VerticalScale,
		BaseThickness: cfg.Model.BaseThickness,
		WidthMM:       cfg.Model.WidthMM,
		OutputFile:    genOutput,
		Source:        src,
		Concurrency:   cfg.Source.Concurrency,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	unit := "mm"
	if cfg.Model.WidthMM <= 0 {
		unit = "m"
	}

	fmt.Println("Terrain Model")
	fmt.Println("=============")
	fmt.Printf("File: %s\n", result.OutputFile)
	fmt.Printf("Tiles: %d\n", result.Tiles)
	fmt.Printf("Triangles: %d\n", result.Triangles)
	fmt.Printf("Size: %.2f x %.2f x %.2f %s\n", result.SizeX, result.SizeY, result.SizeZ, unit)
	fmt.Printf("Volume: %.2f cubic %s\n", result.Volume, unit)
}

// applyGenerateFlags copies explicitly set flags over the loaded config
// so the command line wins over file and environment.
func applyGenerateFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("lat") {
		cfg.Region.Lat = genLat
	}
	if flags.Changed("lon") {
		cfg.Region.Lon = genLon
	}
	if flags.Changed("radius-km") {
		cfg.Region.RadiusKM = genRadiusKM
	}
	if flags.Changed("min-lat") {
		cfg.Region.MinLat = genMinLat
	}
	if flags.Changed("max-lat") {
		cfg.Region.MaxLat = genMaxLat
	}
	if flags.Changed("min-lon") {
		cfg.Region.MinLon = genMinLon
	}
	if flags.Changed("max-lon") {
		cfg.Region.MaxLon = genMaxLon
	}
	if flags.Changed("vertical-scale") {
		cfg.Model.VerticalScale = genVerticalScale
	}
	if flags.Changed("base-thickness") {
		cfg.Model.BaseThickness = genBaseThickness
	}
	if flags.Changed("width-mm") {
		cfg.Model.WidthMM = genWidthMM
	}
	if flags.Changed("resolution") {
		cfg.Model.ResolutionX = genResolution
		cfg.Model.ResolutionY = genResolution
	}
	if flags.Changed("product") {
		cfg.Source.Product = genProduct
	}
	if flags.Changed("tile-dir") {
		cfg.Source.TileDir = genTileDir
	}
	if flags.Changed("cache-dir") {
		cfg.Source.CacheDir = genCacheDir
	}
}

// regionBounds resolves the configured region to a bounding box.
func regionBounds(cfg *config.Config) (dem.BoundingBox, error) {
	if cfg.Region.HasBox() {
		return dem.BoundingBox{
			MinLat: cfg.Region.MinLat,
			MaxLat: cfg.Region.MaxLat,
			MinLon: cfg.Region.MinLon,
			MaxLon: cfg.Region.MaxLon,
		}, nil
	}
	return source.BoundsAround(cfg.Region.Lat, cfg.Region.Lon, cfg.Region.RadiusKM*1000)
}

// buildSource picks a local directory or the Copernicus buckets.
// Remote fetches are wrapped with per-attempt timeouts and retries.
func buildSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	if cfg.Source.TileDir != "" {
		return source.NewDirSource(cfg.Source.TileDir), nil
	}

	s3src, err := source.NewS3Source(ctx, source.S3Options{
		Product:  cfg.Source.Product,
		Bucket:   cfg.Source.Bucket,
		CacheDir: cfg.Source.CacheDir,
	})
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Source.Timeout) * time.Second
	return source.NewRetrySource(s3src, cfg.Source.Retries, timeout, time.Second), nil
}
