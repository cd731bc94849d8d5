package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://r2.ciphermaniac.com", cfg.Source.BaseURL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Trends.MinAppearances)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[source]
base_url = "http://localhost:9000"
concurrency = 2

[server]
addr = ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Source.BaseURL)
	assert.Equal(t, 2, cfg.Source.Concurrency)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	// Untouched sections keep defaults.
	assert.Equal(t, "15m", cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Trends.MinAppearances)
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad request timeout", func(c *Config) { c.Source.RequestTimeout = "soon" }, true},
		{"bad cache ttl", func(c *Config) { c.Cache.TTL = "-" }, true},
		{"negative retries", func(c *Config) { c.Source.RetryMax = -1 }, true},
		{"zero concurrency", func(c *Config) { c.Source.Concurrency = 0 }, true},
		{"negative min appearances", func(c *Config) { c.Trends.MinAppearances = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()

	ttl, err := cfg.GetCacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, ttl)

	timeout, err := cfg.GetRequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}
