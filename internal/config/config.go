// Package config loads, validates and persists the YAML
// configuration shared by the CLI and the HTTP server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tagcask/tagcask/internal/constants"
)

// Config represents the application configuration.
type Config struct {
	StoreRoot      string `yaml:"store_root"`
	DatabasePath   string `yaml:"database_path"`
	HashAlgorithm  string `yaml:"hash_algorithm"`
	HashBufferSize int    `yaml:"hash_buffer_size"`

	ListenAddr        string        `yaml:"listen_addr"`
	APITimeout        time.Duration `yaml:"api_timeout"`
	CORSAllowedOrigin string        `yaml:"cors_allowed_origin"`
	RateLimitPerSec   float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst    int           `yaml:"rate_limit_burst"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	StatsCacheTTL     time.Duration `yaml:"stats_cache_ttl"`

	// Database connection pool settings
	DBMaxOpenConns    int           `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls the rotating log sink. An empty file path keeps
// logging on stderr.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultDir returns the default data directory, honoring
// XDG_DATA_HOME when set.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tagcask")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "tagcask"
	}
	return filepath.Join(home, ".local", "share", "tagcask")
}

// Default returns a default configuration rooted in dir.
func Default(dir string) *Config {
	return &Config{
		StoreRoot:         filepath.Join(dir, "store"),
		DatabasePath:      filepath.Join(dir, "tagcask.db"),
		HashAlgorithm:     "blake3",
		HashBufferSize:    constants.DefaultHashBufferSize,
		ListenAddr:        ":8790",
		APITimeout:        30 * time.Second,
		CORSAllowedOrigin: "http://localhost:8790",
		RateLimitPerSec:   constants.DefaultRequestsPerSecond,
		RateLimitBurst:    constants.DefaultBurstSize,
		MaxUploadBytes:    1 << 30,
		StatsCacheTTL:     30 * time.Second,
		DBMaxOpenConns:    25,
		DBMaxIdleConns:    5,
		DBConnMaxLifetime: 5 * time.Minute,
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields
// the defaults rooted next to the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(filepath.Dir(path)), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default(filepath.Dir(path))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.StoreRoot == "" {
		return fmt.Errorf("store_root is required")
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}

	switch c.HashAlgorithm {
	case "blake3", "sha256":
	default:
		return fmt.Errorf("hash_algorithm must be blake3 or sha256 (got: %s)", c.HashAlgorithm)
	}

	if c.HashBufferSize < 1 {
		return fmt.Errorf("hash_buffer_size must be at least 1")
	}

	if c.APITimeout < time.Second {
		return fmt.Errorf("api_timeout must be at least 1 second")
	}

	if c.RateLimitPerSec <= 0 {
		return fmt.Errorf("rate_limit_per_sec must be positive")
	}

	if c.RateLimitBurst < 1 {
		return fmt.Errorf("rate_limit_burst must be at least 1")
	}

	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("max_upload_bytes must be at least 1")
	}

	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("db_max_open_conns must be at least 1")
	}

	if c.DBMaxIdleConns < 0 {
		return fmt.Errorf("db_max_idle_conns cannot be negative")
	}

	if c.StatsCacheTTL < 0 {
		return fmt.Errorf("stats_cache_ttl cannot be negative")
	}

	if c.CORSAllowedOrigin != "" && c.CORSAllowedOrigin != "*" {
		if !strings.HasPrefix(c.CORSAllowedOrigin, "http://") && !strings.HasPrefix(c.CORSAllowedOrigin, "https://") {
			return fmt.Errorf("cors_allowed_origin must start with http:// or https:// (or be * for all origins)")
		}
	}

	if c.Log.File != "" {
		if c.Log.MaxSizeMB < 1 {
			return fmt.Errorf("log.max_size_mb must be at least 1")
		}
		if c.Log.MaxBackups < 0 {
			return fmt.Errorf("log.max_backups cannot be negative")
		}
		if c.Log.MaxAgeDays < 0 {
			return fmt.Errorf("log.max_age_days cannot be negative")
		}
	}

	return nil
}
