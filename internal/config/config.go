package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/geo"
)

// Config holds all runtime configuration. Values come from a YAML file
// (leadtap.yaml) or environment variables; environment always overrides.
// The server secret must only come from the environment in production.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Run      RunConfig      `yaml:"run"`
	Rotation RotationConfig `yaml:"rotation"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Log      LogConfig      `yaml:"log"`
}

// StorageConfig selects and configures the slot store backend.
type StorageConfig struct {
	Backend   string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"sqlite"`
	Path      string `yaml:"path" env:"STORAGE_PATH" env-default:"leadtap.db"`
	RedisAddr string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisDB   int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
}

// ServerConfig configures the read-only query surface.
type ServerConfig struct {
	Addr   string `yaml:"addr" env:"SERVER_ADDR" env-default:":8787"`
	Secret string `yaml:"secret" env:"SERVER_SECRET" env-default:""`
}

// RunConfig holds per-run tunables and the self-throttle delays.
type RunConfig struct {
	RadiusMeters int           `yaml:"radius_meters" env:"RADIUS_METERS" env-default:"5000"`
	Limit        int           `yaml:"limit" env:"RUN_LIMIT" env-default:"20"`
	Filter       bool          `yaml:"filter" env:"RUN_FILTER"`
	Check        bool          `yaml:"check" env:"RUN_CHECK"`
	Interval     time.Duration `yaml:"interval" env:"RUN_INTERVAL" env-default:"0"`
	GeocodeDelay time.Duration `yaml:"geocode_delay" env:"GEOCODE_DELAY" env-default:"1s"`
	SearchDelay  time.Duration `yaml:"search_delay" env:"SEARCH_DELAY" env-default:"1s"`
	DetectDelay  time.Duration `yaml:"detect_delay" env:"DETECT_DELAY" env-default:"1500ms"`
}

// RotationConfig is the combination space the cursor walks over.
// Order matters: the cursor indexes into these lists.
type RotationConfig struct {
	Categories []string `yaml:"categories"`
	Locations  []string `yaml:"locations"`
}

// UpstreamConfig holds third-party service endpoints. Overridable so tests
// can point at local fakes.
type UpstreamConfig struct {
	OverpassURL  string `yaml:"overpass_url" env:"OVERPASS_URL" env-default:"https://overpass-api.de/api/interpreter"`
	NominatimURL string `yaml:"nominatim_url" env:"NOMINATIM_URL" env-default:"https://nominatim.openstreetmap.org/search"`
	UserAgent    string `yaml:"user_agent" env:"USER_AGENT" env-default:"leadtap/1.0 (marketing lead generation)"`
}

// LogConfig controls zap setup.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// DefaultCategories is the canonical rotation when the config lists none.
var DefaultCategories = []string{
	"dentist", "chiropractor", "veterinarian", "pharmacy",
	"restaurant", "cafe", "bar", "bakery",
	"gym", "hair salon", "beauty salon",
	"lawyer", "accountant", "real estate",
}

// Load reads configuration from path (optional) plus the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Rotation.Categories) == 0 {
		cfg.Rotation.Categories = append([]string(nil), DefaultCategories...)
	}
	if len(cfg.Rotation.Locations) == 0 {
		cfg.Rotation.Locations = geo.KnownCityNames()
	}
	// filter implies check
	if cfg.Run.Filter {
		cfg.Run.Check = true
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("storage.backend must be sqlite or redis, got %q", cfg.Storage.Backend)
	}
	if cfg.Run.RadiusMeters < 100 {
		return fmt.Errorf("run.radius_meters must be >= 100")
	}
	if cfg.Run.Limit < 1 {
		return fmt.Errorf("run.limit must be >= 1")
	}
	return nil
}

// LoadOptional behaves like Load but tolerates a missing file, falling back
// to environment-only configuration.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Load("")
		}
	}
	return Load(path)
}
