// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacgate/stacgate/core/extension"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Catalog    CatalogConfig  `yaml:"catalog"`
	Storage    StorageConfig  `yaml:"storage"`
	Extensions []string       `yaml:"extensions"`
	Auth       AuthConfig     `yaml:"auth"`
	Exceptions map[string]int `yaml:"exceptions"`
	Logging    LoggingConfig  `yaml:"logging"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	OpenAPI    OpenAPIConfig  `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CatalogConfig is the deployment identity stamped into the landing
// page and every generated link.
type CatalogConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	BaseURL     string `yaml:"base_url"`
}

// StorageConfig selects the capability client backing the API.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	DSN    string `yaml:"dsn"`
}

// AuthConfig configures the API-key guard attached through overlays.
// Keys holds plaintext keys hashed at startup; KeyHashes holds
// pre-computed bcrypt hashes. Scopes name the routes the guard covers.
type AuthConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Keys      []string      `yaml:"keys,omitempty"`
	KeyHashes []string      `yaml:"key_hashes,omitempty"`
	Scopes    []ScopeConfig `yaml:"scopes,omitempty"`
}

// ScopeConfig names one route by path template and method.
type ScopeConfig struct {
	Path   string `yaml:"path"`
	Method string `yaml:"method"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OpenAPIConfig configures the generated document endpoints.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variables always override file values
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	STACGATE_SERVER_HOST      - Server host (default: 0.0.0.0)
//	STACGATE_SERVER_PORT      - Server port (default: 8080)
//	STACGATE_CATALOG_TITLE    - Catalog title
//	STACGATE_CATALOG_BASE_URL - Public base URL for generated links
//	STACGATE_STORAGE_DRIVER   - Storage driver: memory or sqlite (default: memory)
//	STACGATE_STORAGE_DSN      - SQLite database path (default: stacgate.db)
//	STACGATE_EXTENSIONS       - Comma-separated extension kinds
//	STACGATE_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	STACGATE_LOG_FORMAT       - Log format: json or console (default: json)
//	STACGATE_METRICS_ENABLED  - Enable /metrics endpoint
//	STACGATE_OPENAPI_ENABLED  - Enable /api and /api.html
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables. The fallback always succeeds because every field has a
// usable default.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies STACGATE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("STACGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("STACGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STACGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("STACGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Catalog identity
	if v := os.Getenv("STACGATE_CATALOG_TITLE"); v != "" {
		cfg.Catalog.Title = v
	}
	if v := os.Getenv("STACGATE_CATALOG_DESCRIPTION"); v != "" {
		cfg.Catalog.Description = v
	}
	if v := os.Getenv("STACGATE_CATALOG_VERSION"); v != "" {
		cfg.Catalog.Version = v
	}
	if v := os.Getenv("STACGATE_CATALOG_BASE_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}

	// Storage configuration
	if v := os.Getenv("STACGATE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("STACGATE_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}

	// Extension topology
	if v := os.Getenv("STACGATE_EXTENSIONS"); v != "" {
		cfg.Extensions = cfg.Extensions[:0]
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Extensions = append(cfg.Extensions, name)
			}
		}
	}

	// Auth configuration
	if v := os.Getenv("STACGATE_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v)
	}
	if v := os.Getenv("STACGATE_AUTH_KEYS"); v != "" {
		cfg.Auth.Keys = strings.Split(v, ",")
	}

	// Logging configuration
	if v := os.Getenv("STACGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STACGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("STACGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	// OpenAPI configuration
	if v := os.Getenv("STACGATE_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Catalog.Title == "" {
		cfg.Catalog.Title = "STACgate Catalog"
	}
	if cfg.Catalog.Description == "" {
		cfg.Catalog.Description = "Geospatial asset catalog"
	}
	if cfg.Catalog.Version == "" {
		cfg.Catalog.Version = "0.1.0"
	}
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "stacgate.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Exceptions == nil {
		cfg.Exceptions = map[string]int{}
	}
}

// knownErrorKinds are the classification codes exception overrides may
// remap.
var knownErrorKinds = map[string]bool{
	"ValidationError":     true,
	"NotFoundError":       true,
	"ConflictError":       true,
	"InternalServerError": true,
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{"memory": true, "sqlite": true}
	if !validDrivers[cfg.Storage.Driver] {
		return fmt.Errorf("storage.driver must be 'memory' or 'sqlite', got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required when storage.driver is 'sqlite'")
	}

	seen := map[extension.Kind]bool{}
	for _, name := range cfg.Extensions {
		kind := extension.ParseKind(name)
		if !kind.IsValid() {
			return fmt.Errorf("extensions[] contains an empty name")
		}
		if seen[kind] {
			return fmt.Errorf("extension %q listed twice", kind)
		}
		seen[kind] = true
	}

	if cfg.Auth.Enabled && len(cfg.Auth.Keys) == 0 && len(cfg.Auth.KeyHashes) == 0 {
		return fmt.Errorf("auth.keys or auth.key_hashes is required when auth.enabled is true")
	}
	for i, scope := range cfg.Auth.Scopes {
		if scope.Path == "" || scope.Method == "" {
			return fmt.Errorf("auth.scopes[%d] needs both path and method", i)
		}
	}

	for kind, status := range cfg.Exceptions {
		if !knownErrorKinds[kind] {
			return fmt.Errorf("exceptions: unknown error kind %q", kind)
		}
		if status < 100 || status > 599 {
			return fmt.Errorf("exceptions[%s]: status %d out of range", kind, status)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
