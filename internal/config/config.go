package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var defaultAllowedOrigins = []string{
	"http://127.0.0.1:5002",
	"http://localhost:5002",
	"http://127.0.0.1:4200",
	"http://localhost:4200",
	"https://completely-understood-vo-a0f23.web.app",
}

// DefaultAllowedOrigins returns the origins used when neither the config
// file nor CORS_ALLOWED_ORIGINS names any.
func DefaultAllowedOrigins() []string {
	return append([]string(nil), defaultAllowedOrigins...)
}

// Config is built once at startup and handed to the server constructor.
type Config struct {
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	CacheTTL        time.Duration `yaml:"cacheTTL"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MetricsEnabled  bool          `yaml:"metricsEnabled"`
	LogLevel        string        `yaml:"logLevel"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:            8080,
		AllowedOrigins:  DefaultAllowedOrigins(),
		CacheTTL:        5 * time.Minute,
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 15 * time.Second,
		MetricsEnabled:  true,
		LogLevel:        "info",
	}
}

// Load layers defaults, the optional YAML file at path and the process
// environment, in that order, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = port
	}
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		if origins := ParseOrigins(v); len(origins) > 0 {
			c.AllowedOrigins = origins
		}
	}
	if v, ok := lookup("CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	if v, ok := lookup("MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = n
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	if v, ok := lookup("METRICS_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		c.MetricsEnabled = b
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// ParseOrigins splits a comma-separated origin list, trimming whitespace
// and dropping empty entries.
func ParseOrigins(s string) []string {
	var origins []string
	for _, origin := range strings.Split(s, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range 1-65535", c.Port)
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("no allowed origins configured")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Addr is the listen address; the service binds all interfaces.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
