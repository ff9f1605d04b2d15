package config

import (
	"fmt"
	"time"
)

// Default values for the service configuration.
const (
	defaultPort            = 8085
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultRegistryBaseURL = "https://projects.propublica.org/nonprofits/api/v2"
	defaultRegistryTimeout = 10 * time.Second
	defaultRegistryRetries = 3

	defaultGeocoderBaseURL = "https://api.zippopotam.us/us"
	defaultGeocoderTimeout = 5 * time.Second

	defaultEmbedderTimeout = 10 * time.Second

	defaultCacheTTL     = time.Hour
	defaultCacheBackend = "memory"

	defaultExactCityMax      = 10
	defaultCountyMax         = 8
	defaultStateMax          = 5
	defaultBackfillThreshold = 10

	defaultMissionConfigPath = "mission.yml"
	defaultUserAgent         = "partner-finder/1.0 (nonprofit partnership research)"
)

// Config holds all configuration for the partner-finder service.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Registry  RegistryConfig  `yaml:"registry"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Cache     CacheConfig     `yaml:"cache"`
	Tiering   TieringConfig   `yaml:"tiering"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Logging   LoggingConfig   `yaml:"logging"`
	Profiling ProfilingConfig `yaml:"profiling"`
}

// ServiceConfig holds HTTP server settings.
type ServiceConfig struct {
	Name            string        `yaml:"name" env:"SERVICE_NAME"`
	Port            int           `yaml:"port" env:"PORT"`
	Environment     string        `yaml:"environment" env:"ENVIRONMENT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// RegistryConfig holds settings for the nonprofit registry API client.
type RegistryConfig struct {
	BaseURL    string        `yaml:"base_url" env:"REGISTRY_BASE_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"REGISTRY_TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" env:"REGISTRY_MAX_RETRIES"`
	UserAgent  string        `yaml:"user_agent" env:"REGISTRY_USER_AGENT"`
}

// GeocoderConfig holds settings for the ZIP geocoder client.
type GeocoderConfig struct {
	BaseURL string        `yaml:"base_url" env:"GEOCODER_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"GEOCODER_TIMEOUT"`
}

// EmbedderConfig holds settings for the embedding sidecar client.
// When URL is empty the mission analyzer runs keyword-only.
type EmbedderConfig struct {
	URL     string        `yaml:"url" env:"EMBEDDER_URL"`
	Timeout time.Duration `yaml:"timeout" env:"EMBEDDER_TIMEOUT"`
}

// CacheConfig holds cache settings. Backend is "memory" or "redis".
type CacheConfig struct {
	Backend  string        `yaml:"backend" env:"CACHE_BACKEND"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
}

// TieringConfig holds the per-tier result caps for geo-tiered search.
type TieringConfig struct {
	ExactCityMax      int `yaml:"exact_city_max" env:"TIER_EXACT_CITY_MAX"`
	CountyMax         int `yaml:"county_max" env:"TIER_COUNTY_MAX"`
	StateMax          int `yaml:"state_max" env:"TIER_STATE_MAX"`
	BackfillThreshold int `yaml:"backfill_threshold" env:"TIER_BACKFILL_THRESHOLD"`
}

// ScoringConfig holds paths and knobs for the ranking engine.
type ScoringConfig struct {
	MissionConfigPath string `yaml:"mission_config_path" env:"MISSION_CONFIG_PATH"`
}

// EnrichConfig holds settings for background website enrichment.
type EnrichConfig struct {
	Enabled   bool          `yaml:"enabled" env:"ENRICH_ENABLED"`
	Timeout   time.Duration `yaml:"timeout" env:"ENRICH_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" env:"ENRICH_USER_AGENT"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// ProfilingConfig holds pprof and pyroscope settings.
type ProfilingConfig struct {
	Enabled       bool   `yaml:"enabled" env:"PROFILING_ENABLED"`
	PprofPort     int    `yaml:"pprof_port" env:"PPROF_PORT"`
	PyroscopeURL  string `yaml:"pyroscope_url" env:"PYROSCOPE_URL"`
	PyroscopeName string `yaml:"pyroscope_name" env:"PYROSCOPE_APP_NAME"`
}

// Load reads configuration from the given path, applies environment
// overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "partner-finder"
	}
	if c.Service.Port == 0 {
		c.Service.Port = defaultPort
	}
	if c.Service.Environment == "" {
		c.Service.Environment = "development"
	}
	if c.Service.ReadTimeout == 0 {
		c.Service.ReadTimeout = defaultReadTimeout
	}
	if c.Service.WriteTimeout == 0 {
		c.Service.WriteTimeout = defaultWriteTimeout
	}
	if c.Service.IdleTimeout == 0 {
		c.Service.IdleTimeout = defaultIdleTimeout
	}
	if c.Service.ShutdownTimeout == 0 {
		c.Service.ShutdownTimeout = defaultShutdownTimeout
	}

	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = defaultRegistryBaseURL
	}
	if c.Registry.Timeout == 0 {
		c.Registry.Timeout = defaultRegistryTimeout
	}
	if c.Registry.MaxRetries == 0 {
		c.Registry.MaxRetries = defaultRegistryRetries
	}
	if c.Registry.UserAgent == "" {
		c.Registry.UserAgent = defaultUserAgent
	}

	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = defaultGeocoderBaseURL
	}
	if c.Geocoder.Timeout == 0 {
		c.Geocoder.Timeout = defaultGeocoderTimeout
	}

	if c.Embedder.Timeout == 0 {
		c.Embedder.Timeout = defaultEmbedderTimeout
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaultCacheTTL
	}

	if c.Tiering.ExactCityMax == 0 {
		c.Tiering.ExactCityMax = defaultExactCityMax
	}
	if c.Tiering.CountyMax == 0 {
		c.Tiering.CountyMax = defaultCountyMax
	}
	if c.Tiering.StateMax == 0 {
		c.Tiering.StateMax = defaultStateMax
	}
	if c.Tiering.BackfillThreshold == 0 {
		c.Tiering.BackfillThreshold = defaultBackfillThreshold
	}

	if c.Scoring.MissionConfigPath == "" {
		c.Scoring.MissionConfigPath = defaultMissionConfigPath
	}

	if c.Enrich.Timeout == 0 {
		c.Enrich.Timeout = defaultGeocoderTimeout
	}
	if c.Enrich.UserAgent == "" {
		c.Enrich.UserAgent = defaultUserAgent
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{
			Field:   "service.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Service.Port),
		}
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return &ValidationError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("must be memory or redis, got %q", c.Cache.Backend),
		}
	}

	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return &ValidationError{
			Field:   "cache.redis_url",
			Message: "required when cache.backend is redis",
		}
	}

	if c.Tiering.ExactCityMax < 0 || c.Tiering.CountyMax < 0 || c.Tiering.StateMax < 0 {
		return &ValidationError{
			Field:   "tiering",
			Message: "tier caps must not be negative",
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
		}
	}

	return nil
}
