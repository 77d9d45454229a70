package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jengzang/records-activity-go/internal/apperr"
)

// Config is the application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Recorder  RecorderConfig  `koanf:"recorder"`
	Cache     CacheConfig     `koanf:"cache"`
	Locations LocationsConfig `koanf:"locations"`
	Analysis  AnalysisConfig  `koanf:"analysis"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr      string  `koanf:"addr"`
	Mode      string  `koanf:"mode"`
	JWTSecret string  `koanf:"jwt_secret"`
	RateLimit float64 `koanf:"rate_limit"` // requests per second per client
	RateBurst int     `koanf:"rate_burst"`
}

// RecorderConfig points at the OwnTracks Recorder
type RecorderConfig struct {
	URL      string        `koanf:"url"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	User     string        `koanf:"user"`
	Device   string        `koanf:"device"` // empty: first device listed by the recorder
	Timeout  time.Duration `koanf:"timeout"`

	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig selects and tunes the fix cache
type CacheConfig struct {
	Backend       string        `koanf:"backend"` // sqlite, badger or memory
	Path          string        `koanf:"path"`
	TTL           time.Duration `koanf:"ttl"`
	HistoricalTTL time.Duration `koanf:"historical_ttl"`
}

// LocationsConfig locates the known-location catalogues
type LocationsConfig struct {
	Catalogue string `koanf:"catalogue"`
	TripsDir  string `koanf:"trips_dir"`
}

// AnalysisConfig tunes the aggregate queries
type AnalysisConfig struct {
	Timezone             string        `koanf:"timezone"`
	OfficeHoursThreshold float64       `koanf:"office_hours_threshold"`
	HomeHoursThreshold   float64       `koanf:"home_hours_threshold"`
	CommuteDays          int           `koanf:"commute_days"`
	FrequentRadiusM      float64       `koanf:"frequent_radius_m"`
	LookupTolerance      time.Duration `koanf:"lookup_tolerance"`
}

// LoggingConfig configures zerolog
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			Mode:      "release",
			RateLimit: 5,
			RateBurst: 20,
		},
		Recorder: RecorderConfig{
			Timeout:            30 * time.Second,
			BreakerMaxFailures: 5,
			BreakerTimeout:     time.Minute,
		},
		Cache: CacheConfig{
			Backend:       "sqlite",
			Path:          "./data/cache/locations.db",
			TTL:           time.Hour,
			HistoricalTTL: 30 * 24 * time.Hour,
		},
		Locations: LocationsConfig{
			Catalogue: "./config/known_locations.json",
			TripsDir:  "./config/trips",
		},
		Analysis: AnalysisConfig{
			Timezone:             "Europe/London",
			OfficeHoursThreshold: 4,
			HomeHoursThreshold:   6,
			CommuteDays:          20,
			FrequentRadiusM:      100,
			LookupTolerance:      30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence. path may be empty; ACTIVITY_CONFIG
// names a file when it is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, apperr.Configuration("", "failed to load defaults: %v", err)
	}

	if path == "" {
		path = os.Getenv("ACTIVITY_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, apperr.Configuration("config", "failed to load %s: %v", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, apperr.Configuration("", "failed to load environment: %v", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, apperr.Configuration("", "failed to unmarshal: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// legacy names kept from the records backend deployment
var envAliases = map[string]string{
	"port":       "server.addr",
	"jwt_secret": "server.jwt_secret",
	"db_path":    "cache.path",
	"log_level":  "logging.level",
	"log_format": "logging.format",
}

var envSections = []string{"server", "recorder", "cache", "locations", "analysis", "logging"}

// envTransformFunc maps ACTIVITY_CACHE_TTL to cache.ttl and the legacy aliases
// to their keys. Unrelated variables map to "" and are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if alias, ok := envAliases[key]; ok {
		return alias
	}

	rest, ok := strings.CutPrefix(key, "activity_")
	if !ok {
		return ""
	}
	for _, section := range envSections {
		if field, ok := strings.CutPrefix(rest, section+"_"); ok && field != "" {
			return section + "." + field
		}
	}
	return ""
}

// Validate checks required keys and value ranges
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return apperr.Configuration("server.mode", "must be debug, release or test")
	}
	if c.Recorder.URL == "" {
		return apperr.Configuration("recorder.url", "is required")
	}
	if c.Recorder.User == "" {
		return apperr.Configuration("recorder.user", "is required")
	}
	if c.Recorder.Timeout <= 0 {
		return apperr.Configuration("recorder.timeout", "must be positive")
	}

	switch c.Cache.Backend {
	case "sqlite", "badger":
		if c.Cache.Path == "" {
			return apperr.Configuration("cache.path", "is required for the %s backend", c.Cache.Backend)
		}
	case "memory":
	default:
		return apperr.Configuration("cache.backend", "unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 || c.Cache.HistoricalTTL <= 0 {
		return apperr.Configuration("cache.ttl", "ttl and historical_ttl must be positive")
	}

	if _, err := time.LoadLocation(c.Analysis.Timezone); err != nil {
		return apperr.Configuration("analysis.timezone", "%v", err)
	}
	if c.Analysis.CommuteDays < 1 {
		return apperr.Configuration("analysis.commute_days", "must be at least 1")
	}
	if c.Analysis.FrequentRadiusM <= 0 {
		return apperr.Configuration("analysis.frequent_radius_m", "must be positive")
	}
	return nil
}

// Location returns the analysis time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Analysis.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
