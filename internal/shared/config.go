package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the config file.
const (
	EnvCacheRoot  = "TRI_CACHE"
	EnvPort       = "TRI_SPOTIFY_PORT"
	EnvSpotifyAPI = "TRI_SPOTIFY_API_URL"
	EnvBackendURL = "TRI_BACKEND_URL"
	EnvDatabase   = "TRI_DATABASE"
)

// Config represents the application configuration loaded from a TOML file.
//
// A Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Backend  BackendConfig  `toml:"backend"`
	Database DatabaseConfig `toml:"database"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	BodyLimit      int64  `toml:"body_limit"`
	RequestTimeout int    `toml:"request_timeout"` // seconds
	VerboseErrors  bool   `toml:"verbose_errors"`
	Lock           bool   `toml:"lock"`
}

// CacheConfig controls where artifacts are written and how many persistence workers run.
type CacheConfig struct {
	Root    string `toml:"root"`
	Workers int    `toml:"workers"`
}

// SpotifyConfig points at the public search API.
type SpotifyConfig struct {
	APIURL    string  `toml:"api_url"`
	RateLimit float64 `toml:"rate_limit"` // requests per second
}

// BackendConfig points at the streaming gateway that serves decrypted variants.
type BackendConfig struct {
	URL string `toml:"url"`
}

// DatabaseConfig contains request ledger settings. An empty path disables the ledger.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the per-request wall-clock budget.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults, and environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	config, err := ParseConfig(path)
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseConfig reads a TOML file over the defaults without applying the environment or validating.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values with any environment variables found by lookup.
//
// Every valid override is applied even when another one is rejected. A bad
// port leaves the configured port in place and is reported in the returned error.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var portErr error

	if v, ok := lookup(EnvCacheRoot); ok && v != "" {
		c.Cache.Root = v
	}

	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil || port == 0 {
			portErr = fmt.Errorf("%w: %s=%q is not a valid port, keeping %d", ErrInvalidConfig, EnvPort, v, c.Server.Port)
		} else {
			c.Server.Port = int(port)
		}
	}

	if v, ok := lookup(EnvSpotifyAPI); ok && v != "" {
		c.Spotify.APIURL = v
	}

	if v, ok := lookup(EnvBackendURL); ok && v != "" {
		c.Backend.URL = v
	}

	if v, ok := lookup(EnvDatabase); ok {
		c.Database.Path = v
	}

	return portErr
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.BodyLimit <= 0 {
		return fmt.Errorf("%w: server.body_limit must be positive", ErrInvalidConfig)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("%w: server.request_timeout must be positive", ErrInvalidConfig)
	}
	if c.Cache.Root == "" {
		return fmt.Errorf("%w: cache.root is required", ErrInvalidConfig)
	}
	if c.Cache.Workers <= 0 {
		return fmt.Errorf("%w: cache.workers must be positive", ErrInvalidConfig)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("%w: backend.url is required", ErrInvalidConfig)
	}
	return nil
}

// CacheRoot returns the absolute cache root, resolving relative paths against the working directory.
func (c *Config) CacheRoot() (string, error) {
	root, err := filepath.Abs(c.Cache.Root)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve cache root: %v", ErrInvalidConfig, err)
	}
	return root, nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
