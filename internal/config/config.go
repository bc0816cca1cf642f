// Package config holds service configuration loaded from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all error-fixer configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Inference endpoint
	Inference InferenceConfig `yaml:"inference"`

	// Fix cache
	Cache CacheConfig `yaml:"cache"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	MaxBatchSize    int    `yaml:"max_batch_size"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// InferenceConfig configures the Ollama endpoint.
type InferenceConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Model           string `yaml:"model"`
	ProbeTimeout    string `yaml:"probe_timeout"`
	GenerateTimeout string `yaml:"generate_timeout"`
}

// CacheConfig configures the fix cache.
type CacheConfig struct {
	MaxSize int `yaml:"max_size"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "codemend",
		Version: "1.0.0",

		Server: ServerConfig{
			Addr:            "127.0.0.1:8000",
			MaxBatchSize:    50,
			ShutdownTimeout: "5s",
		},

		Inference: InferenceConfig{
			Endpoint:        "http://localhost:11434",
			Model:           "codellama:latest",
			ProbeTimeout:    "5s",
			GenerateTimeout: "60s",
		},

		Cache: CacheConfig{
			MaxSize: 1000,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("OLLAMA_HOST"); url != "" {
		c.Inference.Endpoint = url
	}
	if model := os.Getenv("CODEMEND_MODEL"); model != "" {
		c.Inference.Model = model
	}
	if addr := os.Getenv("CODEMEND_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if size := os.Getenv("CODEMEND_CACHE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			c.Cache.MaxSize = n
		}
	}
}

// ProbeTimeoutDuration parses the probe timeout, falling back to 5s.
func (c *InferenceConfig) ProbeTimeoutDuration() time.Duration {
	return parseDuration(c.ProbeTimeout, 5*time.Second)
}

// GenerateTimeoutDuration parses the generate timeout, falling back to 60s.
func (c *InferenceConfig) GenerateTimeoutDuration() time.Duration {
	return parseDuration(c.GenerateTimeout, 60*time.Second)
}

// ShutdownTimeoutDuration parses the shutdown timeout, falling back to 5s.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout, 5*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
