// Package config loads service configuration from an optional YAML file
// overlaid by environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDatabaseURL is the embedded SQLite database used when no
// DATABASE_URL is configured.
const DefaultDatabaseURL = "file:waypoint.db?_pragma=foreign_keys(1)"

// Config is the service configuration.
type Config struct {
	Port        int    `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	// RedisURL enables the alert cache when set (redis://host:6379/0).
	RedisURL string `yaml:"redis_url"`

	Auth   Auth   `yaml:"auth"`
	NWS    NWS    `yaml:"nws"`
	Lookup Lookup `yaml:"lookup"`
	Log    Log    `yaml:"log"`

	// PolicyFile is an optional CUE file overriding classification thresholds.
	PolicyFile    string   `yaml:"policy_file"`
	EventBuffer   int      `yaml:"event_buffer"`
	StreamOrigins []string `yaml:"stream_origins"`
}

// Auth configures caller identification.
type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
	// DevActorHeader lets unauthenticated requests name their actor. Leave
	// empty in production.
	DevActorHeader string `yaml:"dev_actor_header"`
}

// NWS configures the National Weather Service alert feed.
type NWS struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url"`
	UserAgent     string        `yaml:"user_agent"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// Lookup bounds the optional enrichment lookups.
type Lookup struct {
	PlaceTimeout        time.Duration `yaml:"place_timeout"`
	AlertTimeout        time.Duration `yaml:"alert_timeout"`
	FacilityRadiusMiles float64       `yaml:"facility_radius_miles"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:        8080,
		DatabaseURL: DefaultDatabaseURL,
		NWS: NWS{
			Enabled:       true,
			BaseURL:       "https://api.weather.gov",
			UserAgent:     "waypoint/1.0 (ops@waypoint.example)",
			RatePerSecond: 5,
			Burst:         5,
			CacheTTL:      15 * time.Minute,
		},
		Lookup: Lookup{
			PlaceTimeout:        500 * time.Millisecond,
			AlertTimeout:        2 * time.Second,
			FacilityRadiusMiles: 0.3,
		},
		Log:         Log{Level: "info", Format: "text"},
		EventBuffer: 256,
	}
}

// Load reads the YAML file at path (skipped when empty) over the defaults,
// then applies environment overrides read through getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_ISSUER", &c.Auth.JWTIssuer)
	str("DEV_ACTOR_HEADER", &c.Auth.DevActorHeader)
	str("NWS_BASE_URL", &c.NWS.BaseURL)
	str("NWS_USER_AGENT", &c.NWS.UserAgent)
	str("POLICY_FILE", &c.PolicyFile)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if p := getenv("PORT"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = v
	}
	if v := getenv("NWS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NWS_ENABLED: %w", err)
		}
		c.NWS.Enabled = b
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be in 1..65535: got %d", c.Port))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database_url is required"))
	}
	if c.Auth.JWTSecret == "" && c.Auth.DevActorHeader == "" {
		errs = append(errs, errors.New("auth: set jwt_secret, or dev_actor_header for local use"))
	}
	if c.NWS.Enabled && c.NWS.BaseURL == "" {
		errs = append(errs, errors.New("nws.base_url is required when the feed is enabled"))
	}
	if c.Lookup.PlaceTimeout <= 0 || c.Lookup.AlertTimeout <= 0 {
		errs = append(errs, errors.New("lookup timeouts must be positive"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// IsPostgres reports whether DatabaseURL points at Postgres.
func (c Config) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}

// NewLogger builds the process logger.
func NewLogger(l Log, w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
