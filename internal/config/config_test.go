package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "store"), cfg.StoreRoot)
	assert.Equal(t, filepath.Join(dir, "tagcask.db"), cfg.DatabasePath)
	assert.Equal(t, "blake3", cfg.HashAlgorithm)
	require.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yml")

	cfg := Default(dir)
	cfg.HashAlgorithm = "sha256"
	cfg.ListenAddr = ":9999"
	cfg.StatsCacheTTL = time.Minute
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sha256", loaded.HashAlgorithm)
	assert.Equal(t, ":9999", loaded.ListenAddr)
	assert.Equal(t, time.Minute, loaded.StatsCacheTTL)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "blake3", cfg.HashAlgorithm)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("store_root: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty store root", func(c *Config) { c.StoreRoot = "" }},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }},
		{"unknown hash algorithm", func(c *Config) { c.HashAlgorithm = "md5" }},
		{"zero buffer", func(c *Config) { c.HashBufferSize = 0 }},
		{"short timeout", func(c *Config) { c.APITimeout = 50 * time.Millisecond }},
		{"bad cors origin", func(c *Config) { c.CORSAllowedOrigin = "localhost:8790" }},
		{"zero rate limit", func(c *Config) { c.RateLimitPerSec = 0 }},
		{"log file without size", func(c *Config) { c.Log.File = "a.log"; c.Log.MaxSizeMB = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			require.NoError(t, cfg.Validate())
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
