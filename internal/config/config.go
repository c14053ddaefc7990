// Package config loads and validates configuration at startup.
// Fail-fast: if a required variable is missing or malformed, Load returns an
// error and the process exits.
//
// Values come from, in increasing precedence: built-in defaults, the YAML file
// named by ALERTS_CONFIG, a .env file in the working directory, and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all runtime configuration for the alerts service.
type Config struct {
	Port           string        `yaml:"port"`
	GRPCPort       string        `yaml:"grpc_port"`
	StorageBackend string        `yaml:"storage_backend"`
	RedisURL       string        `yaml:"redis_url"`
	DatabaseURL    string        `yaml:"database_url"`
	SQLitePath     string        `yaml:"sqlite_path"`
	JobsAPIBase    string        `yaml:"jobs_api_base"`
	MatchInterval  time.Duration `yaml:"match_interval"` // zero disables the cron re-run
	PushEnabled    bool          `yaml:"push_enabled"`
	EventsRedis    bool          `yaml:"events_redis"` // bridge events over Redis pub/sub
	Debug          bool          `yaml:"debug"`
}

func defaults() Config {
	return Config{
		Port:           "8083",
		GRPCPort:       "9093",
		StorageBackend: BackendMemory,
		SQLitePath:     "data/alerts.db",
	}
}

// Load reads .env (if present), the optional YAML file and the environment,
// and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := defaults()

	if path := getenv("ALERTS_CONFIG"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	str("ALERTS_PORT", &cfg.Port)
	str("ALERTS_GRPC_PORT", &cfg.GRPCPort)
	str("STORAGE_BACKEND", &cfg.StorageBackend)
	str("REDIS_URL", &cfg.RedisURL)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("SQLITE_PATH", &cfg.SQLitePath)
	str("JOBS_API_BASE", &cfg.JobsAPIBase)

	var errs []error
	flag := func(name string, dst *bool) {
		s := strings.TrimSpace(getenv(name))
		if s == "" {
			return
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be a boolean, got %q", name, s))
			return
		}
		*dst = v
	}
	flag("PUSH_ENABLED", &cfg.PushEnabled)
	flag("EVENTS_REDIS", &cfg.EventsRedis)
	flag("DEBUG", &cfg.Debug)

	if s := strings.TrimSpace(getenv("MATCH_INTERVAL")); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("MATCH_INTERVAL must be a duration such as 30m, got %q", s))
		} else {
			cfg.MatchInterval = d
		}
	}

	errs = append(errs, cfg.validate())
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ALERTS_CONFIG: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("ALERTS_CONFIG %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	c.StorageBackend = strings.ToLower(c.StorageBackend)
	switch c.StorageBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis storage backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of memory, redis, postgres, sqlite; got %q", c.StorageBackend)
	}
	if c.EventsRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when EVENTS_REDIS is set")
	}
	if c.MatchInterval < 0 || (c.MatchInterval > 0 && c.MatchInterval < time.Second) {
		return fmt.Errorf("MATCH_INTERVAL must be at least 1s, got %s", c.MatchInterval)
	}
	return nil
}

// NeedsRedis reports whether any component requires a Redis connection.
func (c *Config) NeedsRedis() bool {
	return c.StorageBackend == BackendRedis || c.EventsRedis || (c.PushEnabled && c.RedisURL != "")
}
