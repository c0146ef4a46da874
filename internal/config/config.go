package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iitbhu2k25/Dss-muskan/internal/db"
)

// Config holds the full application configuration.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Boundary   BoundaryConfig   `yaml:"boundary" mapstructure:"boundary"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	CRS        CRSConfig        `yaml:"crs" mapstructure:"crs"`
	Style      StyleConfig      `yaml:"style" mapstructure:"style"`
	GeoServer  GeoServerConfig  `yaml:"geoserver" mapstructure:"geoserver"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CatalogConfig configures the raster catalog backend.
type CatalogConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	BaseDir     string        `yaml:"base_dir" mapstructure:"base_dir"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// BoundaryConfig configures study-area boundaries. Default is used when a
// request names no boundary.
type BoundaryConfig struct {
	Default     string        `yaml:"default" mapstructure:"default"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Schema      string        `yaml:"schema" mapstructure:"schema"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ProcessingConfig configures the raster stages. NoData is written for
// pixels outside the study area when the first layer has no nodata value of
// its own; zero selects -9999.
type ProcessingConfig struct {
	ScratchDir    string  `yaml:"scratch_dir" mapstructure:"scratch_dir"`
	OutputDir     string  `yaml:"output_dir" mapstructure:"output_dir"`
	ResX          float64 `yaml:"res_x" mapstructure:"res_x"`
	ResY          float64 `yaml:"res_y" mapstructure:"res_y"`
	Normalization string  `yaml:"normalization" mapstructure:"normalization"`
	Resampling    string  `yaml:"resampling" mapstructure:"resampling"`
	NoData        float64 `yaml:"nodata" mapstructure:"nodata"`
}

// CRSConfig holds coordinate system defaults. Default is assumed for
// rasters and boundaries that carry no CRS; Target is the output grid CRS.
type CRSConfig struct {
	Default string `yaml:"default" mapstructure:"default"`
	Target  string `yaml:"target" mapstructure:"target"`
}

// StyleConfig configures classification and SLD output.
type StyleConfig struct {
	Classes   int      `yaml:"classes" mapstructure:"classes"`
	Ramp      string   `yaml:"ramp" mapstructure:"ramp"`
	Labels    []string `yaml:"labels" mapstructure:"labels"`
	LayerName string   `yaml:"layer_name" mapstructure:"layer_name"`
}

// GeoServerConfig holds the publishing endpoint and retry policy.
type GeoServerConfig struct {
	URL              string  `yaml:"url" mapstructure:"url"`
	Username         string  `yaml:"username" mapstructure:"username"`
	Password         string  `yaml:"password" mapstructure:"password"`
	Workspace        string  `yaml:"workspace" mapstructure:"workspace"`
	Store            string  `yaml:"store" mapstructure:"store"`
	Format           string  `yaml:"format" mapstructure:"format"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// FetchConfig configures downloads of remote rasters and boundaries.
type FetchConfig struct {
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FTPTimeoutSecs    int     `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxAttempts       int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs" mapstructure:"max_concurrent_jobs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.database_url", "dss.db")
	v.SetDefault("catalog.base_dir", ".")
	v.SetDefault("boundary.schema", "public")
	v.SetDefault("processing.res_x", 30.0)
	v.SetDefault("processing.res_y", 30.0)
	v.SetDefault("processing.normalization", "minmax")
	v.SetDefault("processing.resampling", "bilinear")
	v.SetDefault("processing.nodata", -9999.0)
	v.SetDefault("crs.default", "EPSG:32644")
	v.SetDefault("crs.target", "EPSG:32644")
	v.SetDefault("style.classes", 5)
	v.SetDefault("style.ramp", "blue_to_red")
	v.SetDefault("style.layer_name", "raster_layer")
	v.SetDefault("geoserver.url", "http://localhost:8080/geoserver")
	v.SetDefault("geoserver.username", "admin")
	v.SetDefault("geoserver.workspace", "raster_work")
	v.SetDefault("geoserver.store", "stp_raster_store")
	v.SetDefault("geoserver.format", "arcgrid")
	v.SetDefault("geoserver.timeout_secs", 120)
	v.SetDefault("geoserver.max_attempts", 1)
	v.SetDefault("geoserver.initial_backoff_ms", 500)
	v.SetDefault("geoserver.max_backoff_ms", 10000)
	v.SetDefault("geoserver.multiplier", 2.0)
	v.SetDefault("fetch.user_agent", "dss/1.0")
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.ftp_timeout_secs", 30)
	v.SetDefault("fetch.requests_per_second", 10.0)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("batch.max_concurrent_jobs", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes: "priority",
// "classify", "style", "catalog", "boundary", "batch".
func (c *Config) Validate(mode string) error {
	var errs []string
	required := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, key+" is required")
		}
	}

	if c.Processing.ResX <= 0 || c.Processing.ResY <= 0 {
		errs = append(errs, fmt.Sprintf("processing.res_x and processing.res_y must be > 0, got (%g, %g)", c.Processing.ResX, c.Processing.ResY))
	}
	if math.IsNaN(c.Processing.NoData) || math.IsInf(c.Processing.NoData, 0) {
		errs = append(errs, fmt.Sprintf("processing.nodata must be finite, got %g", c.Processing.NoData))
	}
	if c.Style.Classes < 1 {
		errs = append(errs, fmt.Sprintf("style.classes must be >= 1, got %d", c.Style.Classes))
	}
	if c.Batch.MaxConcurrentJobs < 1 || c.Batch.MaxConcurrentJobs > 64 {
		errs = append(errs, fmt.Sprintf("batch.max_concurrent_jobs must be between 1 and 64, got %d", c.Batch.MaxConcurrentJobs))
	}
	switch c.Catalog.Driver {
	case "sqlite", "postgres", "postgresql":
	default:
		errs = append(errs, fmt.Sprintf("catalog.driver must be sqlite or postgres, got %q", c.Catalog.Driver))
	}

	switch mode {
	case "priority", "batch":
		required("catalog.database_url", c.Catalog.DatabaseURL)
		required("crs.target", c.CRS.Target)
	case "classify":
		required("geoserver.url", c.GeoServer.URL)
		required("geoserver.workspace", c.GeoServer.Workspace)
	case "catalog":
		required("catalog.database_url", c.Catalog.DatabaseURL)
	case "boundary":
		required("boundary.database_url", c.Boundary.DatabaseURL)
	case "style":
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
