package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Report source configuration
	Source SourceConfig `toml:"source"`

	// Cache configuration
	Cache CacheConfig `toml:"cache"`

	// API server configuration
	Server ServerConfig `toml:"server"`

	// Trend generation configuration
	Trends TrendsConfig `toml:"trends"`
}

// SourceConfig contains report source settings.
type SourceConfig struct {
	BaseURL           string  `toml:"base_url"`            // Report store base URL
	LocalRoot         string  `toml:"local_root"`          // Local report directory (overrides base_url)
	RequestTimeout    string  `toml:"request_timeout"`     // Per-request timeout (e.g., "30s")
	RetryMax          int     `toml:"retry_max"`           // Max retries per request
	RequestsPerSecond float64 `toml:"requests_per_second"` // Rate limit against the store
	Concurrency       int     `toml:"concurrency"`         // Parallel tournament fetches
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	TTL    string `toml:"ttl"`     // In-memory payload TTL (e.g., "15m")
	DBPath string `toml:"db_path"` // SQLite cache path ("" = default)
}

// ServerConfig contains API server settings.
type ServerConfig struct {
	Addr           string   `toml:"addr"`            // Listen address (e.g., ":8080")
	AllowedOrigins []string `toml:"allowed_origins"` // CORS allowed origins
	RequestTimeout string   `toml:"request_timeout"` // Per-handler timeout
}

// TrendsConfig contains trend dataset generation settings.
type TrendsConfig struct {
	MinAppearances int `toml:"min_appearances"` // Archetype appearance threshold
	TopCards       int `toml:"top_cards"`       // Rising/falling list length
	MaxTournaments int `toml:"max_tournaments"` // Window size (0 = all)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:           "https://r2.ciphermaniac.com",
			LocalRoot:         "",
			RequestTimeout:    "30s",
			RetryMax:          3,
			RequestsPerSecond: 8,
			Concurrency:       4,
		},
		Cache: CacheConfig{
			TTL:    "15m",
			DBPath: "",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			RequestTimeout: "60s",
		},
		Trends: TrendsConfig{
			MinAppearances: 3,
			TopCards:       25,
			MaxTournaments: 0,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".ciphermaniac")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultDBPath returns the default SQLite cache path.
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ciphermaniac", "cache.db"), nil
}

// Load loads the configuration from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from a specific path. Returns default
// config if the file doesn't exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Source.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Source.RequestTimeout, err)
	}

	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Cache.TTL, err)
	}

	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("invalid server timeout %q: %w", c.Server.RequestTimeout, err)
	}

	if c.Source.RetryMax < 0 {
		return fmt.Errorf("retry max cannot be negative: %d", c.Source.RetryMax)
	}

	if c.Source.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1: %d", c.Source.Concurrency)
	}

	if c.Trends.MinAppearances < 0 {
		return fmt.Errorf("min appearances cannot be negative: %d", c.Trends.MinAppearances)
	}

	return nil
}

// GetRequestTimeout returns the source request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Source.RequestTimeout)
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetServerTimeout returns the API handler timeout as a duration.
func (c *Config) GetServerTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.RequestTimeout)
}
