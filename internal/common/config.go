// Package common provides shared utilities for Nestegg
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Nestegg
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Clients ClientsConfig `toml:"clients"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds MCP server settings
type ServerConfig struct {
	Name string `toml:"name"`
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds file storage configuration.
// Data is the root directory holding settings.json and one directory per owner.
type StorageConfig struct {
	Data FileConfig `toml:"data"`
}

// FileConfig holds file-based storage configuration.
// Versions controls how many .json.vN backups are rotated on write (0 disables).
type FileConfig struct {
	Path     string `toml:"path"`
	Versions int    `toml:"versions"`
}

// ClientsConfig holds API client configurations.
// Provider selects the market data source: "eodhd" or "yahoo".
type ClientsConfig struct {
	Provider string      `toml:"provider"`
	EODHD    EODHDConfig `toml:"eodhd"`
	FRED     FREDConfig  `toml:"fred"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FREDConfig holds FRED (Federal Reserve Economic Data) API configuration
type FREDConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FREDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "Nestegg-MCP",
			Host: "0.0.0.0",
			Port: 4270,
		},
		Storage: StorageConfig{
			Data: FileConfig{
				Path:     "data",
				Versions: 0,
			},
		},
		Clients: ClientsConfig{
			Provider: "yahoo",
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			FRED: FREDConfig{
				BaseURL: "https://api.stlouisfed.org/fred",
				Timeout: "30s",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/nestegg.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment overrides
	applyEnvOverrides(config)

	// Normalize provider aliases and validate
	config.Clients.Provider = normalizeProvider(config.Clients.Provider)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if host := os.Getenv("NESTEGG_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("NESTEGG_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("NESTEGG_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("NESTEGG_DATA_PATH"); path != "" {
		config.Storage.Data.Path = path
	}

	if provider := os.Getenv("NESTEGG_PROVIDER"); provider != "" {
		config.Clients.Provider = provider
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.Clients.EODHD.APIKey = key
	}

	if key := os.Getenv("FRED_API_KEY"); key != "" {
		config.Clients.FRED.APIKey = key
	}
}

// normalizeProvider maps provider aliases to canonical names.
// Unknown values fall back to "yahoo" (no API key required).
func normalizeProvider(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "eodhd":
		return "eodhd"
	case "yahoo", "yfinance", "":
		return "yahoo"
	default:
		return "yahoo"
	}
}
