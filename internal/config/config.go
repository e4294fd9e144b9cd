package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config represents the proxy configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	DataGov DataGovConfig `yaml:"datagov"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int           `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	APIKeys []APIKey `yaml:"api_keys" validate:"dive"`
}

// APIKey represents an API key for authentication
type APIKey struct {
	Name string `yaml:"name" validate:"required"`
	Key  string `yaml:"key" validate:"required"`
}

// DataGovConfig contains data.gov.gr connection settings
type DataGovConfig struct {
	Token   string        `yaml:"token" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables in the config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv builds the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	var cfg Config
	var errs error

	cfg.DataGov.Token = os.Getenv("DATAGOV_TOKEN")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")
	cfg.Logging.Format = os.Getenv("LOG_FORMAT")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		errs = multierr.Append(errs, wrapEnv("PORT", err))
		cfg.Server.Port = port
	}
	if v := os.Getenv("DATAGOV_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		errs = multierr.Append(errs, wrapEnv("DATAGOV_TIMEOUT", err))
		cfg.DataGov.Timeout = d
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		errs = multierr.Append(errs, wrapEnv("METRICS_ENABLED", err))
		cfg.Metrics.Enabled = enabled
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		keys, err := ParseAPIKeys(v)
		errs = multierr.Append(errs, wrapEnv("API_KEYS", err))
		cfg.Auth.APIKeys = keys
	}
	if errs != nil {
		return nil, errs
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseAPIKeys parses "name:key,name:key"
func ParseAPIKeys(s string) ([]APIKey, error) {
	var keys []APIKey
	var errs error

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, key, ok := strings.Cut(pair, ":")
		if !ok || name == "" || key == "" {
			errs = multierr.Append(errs, fmt.Errorf("invalid api key entry %q, expected name:key", pair))
			continue
		}
		keys = append(keys, APIKey{Name: name, Key: key})
	}

	return keys, errs
}

// Validate checks struct constraints and cross-field rules, reporting all problems
func (c *Config) Validate() error {
	var errs error

	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs = multierr.Append(errs, fmt.Errorf("invalid config %s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = multierr.Append(errs, err)
		}
	}

	seen := make(map[string]string)
	for _, k := range c.Auth.APIKeys {
		if other, dup := seen[k.Key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("api keys %q and %q share the same key", other, k.Name))
		}
		seen[k.Key] = k.Name
	}

	return errs
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.DataGov.Timeout == 0 {
		c.DataGov.Timeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func wrapEnv(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid %s: %w", name, err)
}
