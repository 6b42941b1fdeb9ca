// Package config loads and validates the service configuration. Values
// come from three layers, lowest priority first: code defaults, an
// optional YAML file, and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Duration wraps time.Duration so YAML files can carry values like "15s"
// or "5m" instead of nanosecond integers.
type Duration time.Duration

// UnmarshalYAML accepts duration strings and integer nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v))
	case int64:
		*d = Duration(time.Duration(v))
	case float64:
		*d = Duration(time.Duration(v))
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full service configuration.
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development staging production"`

	Server  Server  `yaml:"server"`
	Redis   Redis   `yaml:"redis"`
	Cache   Cache   `yaml:"cache"`
	Logging Logging `yaml:"logging"`
	Events  Events  `yaml:"events"`
}

// Server configures the HTTP listener.
type Server struct {
	Host            string   `yaml:"host" validate:"required"`
	Port            int      `yaml:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     Duration `yaml:"read_timeout" validate:"required"`
	WriteTimeout    Duration `yaml:"write_timeout" validate:"required"`
	IdleTimeout     Duration `yaml:"idle_timeout" validate:"required"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" validate:"required"`
}

// Redis configures the cache backend connection.
type Redis struct {
	Addr         string   `yaml:"addr" validate:"required"`
	Password     string   `yaml:"password"`
	DB           int      `yaml:"db" validate:"min=0"`
	DialTimeout  Duration `yaml:"dial_timeout" validate:"required"`
	ReadTimeout  Duration `yaml:"read_timeout" validate:"required"`
	WriteTimeout Duration `yaml:"write_timeout" validate:"required"`
	PoolSize     int      `yaml:"pool_size" validate:"min=1"`
	MinIdleConns int      `yaml:"min_idle_conns" validate:"min=0"`
}

// Cache configures the caching subsystem's tunables.
type Cache struct {
	// TTLOverrides replaces per-class default TTLs. Keys are cache class
	// names (e.g. "overview"); unknown names are rejected at validation.
	TTLOverrides map[string]Duration `yaml:"ttl_overrides"`

	WarmingInterval    Duration `yaml:"warming_interval" validate:"required"`
	WarmingConcurrency int      `yaml:"warming_concurrency" validate:"min=1"`
	MetricsWindow      Duration `yaml:"metrics_window" validate:"required"`
	MetricsCapacity    int      `yaml:"metrics_capacity" validate:"min=64"`
	AnalyzerInterval   Duration `yaml:"analyzer_interval" validate:"required"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"required,oneof=json console"`
}

// Events configures alert publishing.
type Events struct {
	Enabled      bool   `yaml:"enabled"`
	EventBusName string `yaml:"event_bus_name"`
	Source       string `yaml:"source"`
}

// Default returns the baseline configuration before file and environment
// overlays.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Redis: Redis{
			Addr:         "localhost:6379",
			DB:           0,
			DialTimeout:  Duration(5 * time.Second),
			ReadTimeout:  Duration(5 * time.Second),
			WriteTimeout: Duration(5 * time.Second),
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Cache: Cache{
			WarmingInterval:    Duration(60 * time.Second),
			WarmingConcurrency: 5,
			MetricsWindow:      Duration(5 * time.Minute),
			MetricsCapacity:    8192,
			AnalyzerInterval:   Duration(time.Minute),
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Events: Events{
			Enabled:      false,
			EventBusName: "default",
			Source:       "argus.cache",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables. Variables are the highest
// priority source so deployments can override any file value.
func applyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Environment = Environment(strings.ToLower(v))
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("WARMING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WarmingInterval = Duration(d)
		}
	}
	if v := os.Getenv("WARMING_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.WarmingConcurrency = n
		}
	}
	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Events.Enabled = b
		}
	}
	if v := os.Getenv("EVENT_BUS_NAME"); v != "" {
		cfg.Events.EventBusName = v
	}
}

// Validate checks structural constraints plus the cross-field rules the
// validator tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	for name, ttl := range c.Cache.TTLOverrides {
		if !knownClass(name) {
			return fmt.Errorf("config validation: unknown cache class %q in ttl_overrides", name)
		}
		if ttl <= 0 {
			return fmt.Errorf("config validation: non-positive ttl override for class %q", name)
		}
	}
	return nil
}

// knownClass mirrors the cache class names without importing the cache
// package, keeping config free of domain dependencies.
func knownClass(name string) bool {
	switch name {
	case "overview", "analytics", "user_preferences", "widget_data",
		"system_status", "performance_metrics", "recent_activity",
		"notifications", "aggregated_analytics":
		return true
	}
	return false
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}
