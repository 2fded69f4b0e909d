package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Region RegionConfig `mapstructure:"region"`
	Model  ModelConfig  `mapstructure:"model"`
	Source SourceConfig `mapstructure:"source"`
	Log    LogConfig    `mapstructure:"log"`
}

// RegionConfig selects the area to model: either an explicit bounding
// box or a center point with a radius.
type RegionConfig struct {
	Lat      float64 `mapstructure:"lat"`
	Lon      float64 `mapstructure:"lon"`
	RadiusKM float64 `mapstructure:"radius_km"`
	MinLat   float64 `mapstructure:"min_lat"`
	MaxLat   float64 `mapstructure:"max_lat"`
	MinLon   float64 `mapstructure:"min_lon"`
	MaxLon   float64 `mapstructure:"max_lon"`
}

// HasBox reports whether an explicit bounding box is configured.
func (r RegionConfig) HasBox() bool {
	return r.MinLat != r.MaxLat || r.MinLon != r.MaxLon
}

type ModelConfig struct {
	VerticalScale float64 `mapstructure:"vertical_scale"`
	BaseThickness float64 `mapstructure:"base_thickness"` // millimeters
	WidthMM       float64 `mapstructure:"width_mm"`       // longer footprint side, 0 keeps meters
	ResolutionX   int     `mapstructure:"resolution_x"`
	ResolutionY   int     `mapstructure:"resolution_y"`
	MaxResolution int     `mapstructure:"max_resolution"`
}

type SourceConfig struct {
	Product     int    `mapstructure:"product"` // DEM grid spacing in meters, 30 or 90
	Bucket      string `mapstructure:"bucket"`
	CacheDir    string `mapstructure:"cache_dir"`
	TileDir     string `mapstructure:"tile_dir"` // local directory instead of S3
	Timeout     int    `mapstructure:"timeout"`  // seconds per fetch attempt
	Retries     int    `mapstructure:"retries"`
	Concurrency int    `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file and environment
// variables. Validation is separate so command-line flags can override
// fields before Validate runs.
func Load(file string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("region.lat", 0.0)
	v.SetDefault("region.lon", 0.0)
	v.SetDefault("region.radius_km", 0.0)
	v.SetDefault("region.min_lat", 0.0)
	v.SetDefault("region.max_lat", 0.0)
	v.SetDefault("region.min_lon", 0.0)
	v.SetDefault("region.max_lon", 0.0)
	v.SetDefault("model.vertical_scale", 1.0)
	v.SetDefault("model.base_thickness", 2.0)
	v.SetDefault("model.width_mm", 100.0)
	v.SetDefault("model.resolution_x", 256)
	v.SetDefault("model.resolution_y", 256)
	v.SetDefault("model.max_resolution", 4096)
	v.SetDefault("source.product", 30)
	v.SetDefault("source.bucket", "")
	v.SetDefault("source.cache_dir", "")
	v.SetDefault("source.tile_dir", "")
	v.SetDefault("source.timeout", 60)
	v.SetDefault("source.retries", 3)
	v.SetDefault("source.concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Config file (optional unless given explicitly)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("terrastl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: TERRASTL_MODEL_VERTICAL_SCALE → model.vertical_scale
	v.SetEnvPrefix("TERRASTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if !c.Region.HasBox() && c.Region.RadiusKM <= 0 {
		errs = append(errs, "region: set min/max bounds or a center with radius_km")
	}
	if c.Region.HasBox() {
		if c.Region.MinLat >= c.Region.MaxLat {
			errs = append(errs, fmt.Sprintf("region.min_lat %g must be below region.max_lat %g", c.Region.MinLat, c.Region.MaxLat))
		}
		if c.Region.MinLon >= c.Region.MaxLon {
			errs = append(errs, fmt.Sprintf("region.min_lon %g must be below region.max_lon %g", c.Region.MinLon, c.Region.MaxLon))
		}
	}
	if c.Model.VerticalScale <= 0 {
		errs = append(errs, fmt.Sprintf("model.vertical_scale must be positive, got %g", c.Model.VerticalScale))
	}
	if c.Model.BaseThickness < 0 {
		errs = append(errs, fmt.Sprintf("model.base_thickness must not be negative, got %g", c.Model.BaseThickness))
	}
	if c.Model.WidthMM < 0 {
		errs = append(errs, fmt.Sprintf("model.width_mm must not be negative, got %g", c.Model.WidthMM))
	}
	if c.Model.ResolutionX < 2 || c.Model.ResolutionY < 2 {
		errs = append(errs, fmt.Sprintf("model.resolution must be at least 2x2, got %dx%d", c.Model.ResolutionX, c.Model.ResolutionY))
	}
	if c.Model.MaxResolution < 2 {
		errs = append(errs, fmt.Sprintf("model.max_resolution must be at least 2, got %d", c.Model.MaxResolution))
	}
	if c.Source.Product != 30 && c.Source.Product != 90 {
		errs = append(errs, fmt.Sprintf("source.product must be 30 or 90, got %d", c.Source.Product))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, "source.timeout must be positive")
	}
	if c.Source.Retries < 1 {
		errs = append(errs, "source.retries must be at least 1")
	}
	if c.Source.Concurrency < 1 {
		errs = append(errs, "source.concurrency must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
