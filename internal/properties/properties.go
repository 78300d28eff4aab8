package properties

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is the run configuration. It is loaded once and passed by value to every step.
type Config struct {
	RootPath     string             `env:"ROOT_PATH"`
	CMR          CMRConfig          `envPrefix:"CMR_"`
	Search       SearchConfig       `envPrefix:"SEARCH_"`
	Coverage     CoverageConfig     `envPrefix:"COVERAGE_"`
	Earthdata    EarthdataConfig    `envPrefix:"EARTHDATA_"`
	Raster       RasterConfig       `envPrefix:"RASTER_"`
	SwatPlus     SwatPlusConfig     `envPrefix:"SWATPLUS_"`
	Logging      LoggingConfig      `envPrefix:"LOG_"`
	Notification NotificationConfig `envPrefix:"DISCORD_"`
}

type CMRConfig struct {
	BaseURL  string        `env:"BASE_URL" envDefault:"https://cmr.earthdata.nasa.gov/search"`
	Provider string        `env:"PROVIDER" envDefault:"NSIDC_ECS"`
	PageSize int           `env:"PAGE_SIZE" envDefault:"2000"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"60s"`
	Cache    bool          `env:"CACHE" envDefault:"true"`
}

// SearchConfig describes the granule query of one pipeline run.
type SearchConfig struct {
	ShortName      string `env:"SHORT_NAME" envDefault:"SPL2SMAP_S"`
	Version        string `env:"VERSION" envDefault:"003"`
	TimeStart      string `env:"TIME_START" envDefault:"2020-04-07T00:00:00Z"`
	TimeEnd        string `env:"TIME_END" envDefault:"2020-04-08T00:00:00Z"`
	BoundingBox    string `env:"BOUNDING_BOX" envDefault:"9.075181780910482,35.789381002622484,9.648289096658775,36.539747306557665"`
	Polygon        string `env:"POLYGON" envDefault:""`
	FilenameFilter string `env:"FILENAME_FILTER" envDefault:""`
}

type CoverageConfig struct {
	// WarnAbove only logs; enumeration is never capped.
	WarnAbove int  `env:"WARN_ABOVE" envDefault:"12"`
	Workers   int  `env:"WORKERS" envDefault:"4"`
	KML       bool `env:"KML" envDefault:"true"`
}

type EarthdataConfig struct {
	Host        string `env:"HOST" envDefault:"urs.earthdata.nasa.gov"`
	Username    string `env:"USERNAME" envDefault:""`
	Password    string `env:"PASSWORD" envDefault:""`
	Token       string `env:"TOKEN" envDefault:""`
	NetrcPath   string `env:"NETRC" envDefault:""`
	AllPolygons bool   `env:"ALL_POLYGONS" envDefault:"true"`
}

type RasterConfig struct {
	Band             string  `env:"BAND" envDefault:"Soil_Moisture_Retrieval_Data_1km/soil_moisture_1km"`
	NoData           float64 `env:"NODATA" envDefault:"-9999"`
	OutlierThreshold float64 `env:"OUTLIER_THRESHOLD" envDefault:"0.98"`
	SampleWorkers    int     `env:"SAMPLE_WORKERS" envDefault:"8"`
	GridRows         int     `env:"GRID_ROWS" envDefault:"6"`
	GridCols         int     `env:"GRID_COLS" envDefault:"12"`
}

type SwatPlusConfig struct {
	ProjectDB string `env:"PROJECT_DB" envDefault:"project.sqlite"`
	OutputDB  string `env:"OUTPUT_DB" envDefault:"swatplus_output.sqlite"`
	MergeDB   string `env:"MERGE_DB" envDefault:"swatplus_smap_merge.sqlite"`
}

type LoggingConfig struct {
	Level   string `env:"LEVEL" envDefault:"info"`
	Console bool   `env:"CONSOLE" envDefault:"true"`
}

type NotificationConfig struct {
	ErrorURL   string `env:"ERROR_NOTIFICATION_URL" envDefault:""`
	SuccessURL string `env:"SUCCESS_NOTIFICATION_URL" envDefault:""`
}

// LoadEnvFiles loads the first .env file found, looking in the parent directory first.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{"../.env", ".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}

// Load parses the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.RootPath = strings.TrimSuffix(cfg.RootPath, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.RootPath == "" {
		return fmt.Errorf("ROOT_PATH is required")
	}
	if info, err := os.Stat(c.RootPath); err != nil || !info.IsDir() {
		return fmt.Errorf("ROOT_PATH %q is not a directory", c.RootPath)
	}
	if c.CMR.PageSize < 1 || c.CMR.PageSize > 2000 {
		return fmt.Errorf("CMR page size must be between 1 and 2000, got %d", c.CMR.PageSize)
	}
	if c.CMR.Timeout <= 0 {
		return fmt.Errorf("CMR timeout must be positive, got %s", c.CMR.Timeout)
	}
	if c.Search.ShortName == "" {
		return fmt.Errorf("search short name is required")
	}
	if len(c.Search.Version) > 3 {
		return fmt.Errorf("version string too long: %q", c.Search.Version)
	}
	for _, ts := range []string{c.Search.TimeStart, c.Search.TimeEnd} {
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			return fmt.Errorf("invalid search time %q: %w", ts, err)
		}
	}
	if c.Coverage.Workers < 1 {
		return fmt.Errorf("coverage workers must be at least 1, got %d", c.Coverage.Workers)
	}
	if c.Raster.OutlierThreshold <= 0 || c.Raster.OutlierThreshold > 1 {
		return fmt.Errorf("raster outlier threshold must be in (0, 1], got %v", c.Raster.OutlierThreshold)
	}
	if c.Raster.SampleWorkers < 1 {
		return fmt.Errorf("raster sample workers must be at least 1, got %d", c.Raster.SampleWorkers)
	}
	if c.Raster.GridRows < 1 || c.Raster.GridCols < 1 {
		return fmt.Errorf("raster grid must have at least one row and column")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// DateRange returns the day part of the search window, as used in workbook names.
func (s SearchConfig) DateRange() (string, string) {
	return strings.Split(s.TimeStart, "T")[0], strings.Split(s.TimeEnd, "T")[0]
}
