package config

import (
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Build  BuildConfig  `yaml:"build" mapstructure:"build"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Tiles  TilesConfig  `yaml:"tiles" mapstructure:"tiles"`
	Serve  ServeConfig  `yaml:"serve" mapstructure:"serve"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the intermediate point store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// IngestConfig configures RÚIAN source parsing.
type IngestConfig struct {
	Encoding    string `yaml:"encoding" mapstructure:"encoding"`
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// BuildConfig configures region construction, adjacency, and coloring.
type BuildConfig struct {
	Strategy              string  `yaml:"strategy" mapstructure:"strategy"`
	BufferRadiusM         float64 `yaml:"buffer_radius_m" mapstructure:"buffer_radius_m"`
	AlphaMinM             float64 `yaml:"alpha_min_m" mapstructure:"alpha_min_m"`
	AlphaMaxM             float64 `yaml:"alpha_max_m" mapstructure:"alpha_max_m"`
	AlphaDensityThreshold float64 `yaml:"alpha_density_threshold" mapstructure:"alpha_density_threshold"`
	ClipBufferM           float64 `yaml:"clip_buffer_m" mapstructure:"clip_buffer_m"`
	SimplifyToleranceM    float64 `yaml:"simplify_tolerance_m" mapstructure:"simplify_tolerance_m"`
	AdjacencyToleranceM   float64 `yaml:"adjacency_tolerance_m" mapstructure:"adjacency_tolerance_m"`
	PaletteSize           int     `yaml:"palette_size" mapstructure:"palette_size"`
	Workers               int     `yaml:"workers" mapstructure:"workers"`
	Strict                bool    `yaml:"strict" mapstructure:"strict"`
}

// OutputConfig configures where build results land.
type OutputConfig struct {
	GeoJSON     string `yaml:"geojson" mapstructure:"geojson"`
	Report      string `yaml:"report" mapstructure:"report"`
	PostgresURL string `yaml:"postgres_url" mapstructure:"postgres_url"`
}

// TilesConfig configures tippecanoe invocation.
type TilesConfig struct {
	MinZoom        int    `yaml:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom        int    `yaml:"max_zoom" mapstructure:"max_zoom"`
	TippecanoePath string `yaml:"tippecanoe_path" mapstructure:"tippecanoe_path"`
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
	Layer          string `yaml:"layer" mapstructure:"layer"`
}

// ServeConfig configures the local preview server.
type ServeConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Dir  string `yaml:"dir" mapstructure:"dir"`
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
	v.SetEnvPrefix("PSC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "data/points.db")
	v.SetDefault("ingest.encoding", "windows-1250")
	v.SetDefault("ingest.delimiter", ";")
	v.SetDefault("ingest.timeout_secs", 300)
	v.SetDefault("ingest.rate_per_sec", 4)
	v.SetDefault("build.strategy", "concave")
	v.SetDefault("build.buffer_radius_m", 500.0)
	v.SetDefault("build.alpha_min_m", 800.0)
	v.SetDefault("build.alpha_max_m", 5000.0)
	v.SetDefault("build.alpha_density_threshold", 50.0)
	v.SetDefault("build.clip_buffer_m", 500.0)
	v.SetDefault("build.simplify_tolerance_m", 20.0)
	v.SetDefault("build.adjacency_tolerance_m", 25.0)
	v.SetDefault("build.palette_size", 6)
	v.SetDefault("build.workers", runtime.NumCPU())
	v.SetDefault("build.strict", false)
	v.SetDefault("output.geojson", "data/regions.geojson")
	v.SetDefault("output.report", "data/report.yaml")
	v.SetDefault("tiles.min_zoom", 6)
	v.SetDefault("tiles.max_zoom", 14)
	v.SetDefault("tiles.tippecanoe_path", "tippecanoe")
	v.SetDefault("tiles.output_dir", "data/tiles")
	v.SetDefault("tiles.layer", "psc")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.dir", "data")
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects knob combinations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Build.Strategy {
	case "concave", "voronoi":
	default:
		return eris.Errorf("config: unknown build strategy %q (want concave or voronoi)", c.Build.Strategy)
	}
	if c.Build.BufferRadiusM <= 0 {
		return eris.New("config: buffer_radius_m must be positive")
	}
	if c.Build.AlphaMinM <= 0 || c.Build.AlphaMaxM < c.Build.AlphaMinM {
		return eris.New("config: alpha range must satisfy 0 < alpha_min_m <= alpha_max_m")
	}
	if c.Build.PaletteSize < 1 {
		return eris.New("config: palette_size must be at least 1")
	}
	if c.Build.Workers < 1 {
		c.Build.Workers = 1
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
