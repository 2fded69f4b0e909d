package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/terrastl/internal/config"
	"github.com/philipparndt/terrastl/pkg/source"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	tilesConfig   string
	tilesLat      float64
	tilesLon      float64
	tilesRadiusKM float64
	tilesMinLat   float64
	tilesMaxLat   float64
	tilesMinLon   float64
	tilesMaxLon   float64
	tilesProduct  int
	tilesRemote   bool
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "List the DEM tiles a region needs",
	Long: `Resolve a region to the one-degree tiles that cover it and print
their Copernicus object names. With --remote the matching objects in
the distribution bucket are listed as well.`,
	Run: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().StringVar(&tilesConfig, "config", "", "Path to a YAML config file")
	tilesCmd.Flags().Float64Var(&tilesLat, "lat", 0, "Latitude of the region center")
	tilesCmd.Flags().Float64Var(&tilesLon, "lon", 0, "Longitude of the region center")
	tilesCmd.Flags().Float64Var(&tilesRadiusKM, "radius-km", 0, "Radius around the center in kilometers")
	tilesCmd.Flags().Float64Var(&tilesMinLat, "min-lat", 0, "Southern edge of the bounding box")
	tilesCmd.Flags().Float64Var(&tilesMaxLat, "max-lat", 0, "Northern edge of the bounding box")
	tilesCmd.Flags().Float64Var(&tilesMinLon, "min-lon", 0, "Western edge of the bounding box")
	tilesCmd.Flags().Float64Var(&tilesMaxLon, "max-lon", 0, "Eastern edge of the bounding box")
	tilesCmd.Flags().IntVar(&tilesProduct, "product", 0, "DEM grid spacing in meters, 30 or 90")
	tilesCmd.Flags().BoolVar(&tilesRemote, "remote", false, "List the matching objects in the S3 bucket")

	tilesCmd.MarkFlagsRequiredTogether("lat", "lon", "radius-km")
	tilesCmd.MarkFlagsRequiredTogether("min-lat", "max-lat", "min-lon", "max-lon")
}

func runTiles(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(tilesConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyTilesFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	bounds, err := regionBounds(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ids := source.TilesFor(bounds)
	code := 10
	if cfg.Source.Product == 90 {
		code = 30
	}

	fmt.Println("Required Tiles")
	fmt.Println("==============")
	fmt.Printf("Region: %s\n", bounds.String())
	fmt.Printf("Tiles: %d\n\n", len(ids))
	for _, id := range ids {
		fmt.Printf("  %s  %s\n", id, id.CopernicusName(code))
	}

	if !tilesRemote {
		return
	}

	ctx := cmd.Context()
	src, err := source.NewS3Source(ctx, source.S3Options{
		Product: cfg.Source.Product,
		Bucket:  cfg.Source.Bucket,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nRemote Objects:")
	for _, id := range ids {
		keys, err := src.ListKeys(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing %s: %v\n", id, err)
			os.Exit(1)
		}
		if len(keys) == 0 {
			fmt.Printf("  %s: no objects\n", id)
			continue
		}
		for _, key := range keys {
			fmt.Printf("  %s\n", key)
		}
	}
}

func applyTilesFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("lat") {
		cfg.Region.Lat = tilesLat
	}
	if flags.Changed("lon") {
		cfg.Region.Lon = tilesLon
	}
	if flags.Changed("radius-km") {
		cfg.Region.RadiusKM = tilesRadiusKM
	}
	if flags.Changed("min-lat") {
		cfg.Region.MinLat = tilesMinLat
	}
	if flags.Changed("max-lat") {
		cfg.Region.MaxLat = tilesMaxLat
	}
	if flags.Changed("min-lon") {
		cfg.Region.MinLon = tilesMinLon
	}
	if flags.Changed("max-lon") {
		cfg.Region.MaxLon = tilesMaxLon
	}
	if flags.Changed("product") {
		cfg.Source.Product = tilesProduct
	}
}
