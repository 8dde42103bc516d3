// Package config loads and holds the immutable process configuration.
//
// DESIGN: Configuration is resolved once at startup and read-only afterwards:
//  1. Built-in defaults (defaults.go)
//  2. Optional YAML config file (Load / LoadFromBytes)
//  3. Environment variables (highest precedence; .env loaded by cmd)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration. Immutable after Load.
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Compression struct {
		APIKey         string  `yaml:"api_key"`
		Endpoint       string  `yaml:"endpoint"`
		Model          string  `yaml:"model"`
		Aggressiveness float64 `yaml:"aggressiveness"`
		MinTextLength  int     `yaml:"min_text_length"`
	} `yaml:"compression"`

	Upstream struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"upstream"`

	Monitoring struct {
		TelemetryPath string `yaml:"telemetry_path"`
		SavingsDBPath string `yaml:"savings_db_path"`
		LogFile       string `yaml:"log_file"`
	} `yaml:"monitoring"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = DefaultPort
	cfg.Server.ReadTimeout = DefaultServerReadTimeout
	cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	cfg.Compression.Endpoint = DefaultCompressionAPI
	cfg.Compression.Model = DefaultCompressionModel
	cfg.Compression.Aggressiveness = DefaultAggressiveness
	cfg.Compression.MinTextLength = DefaultMinTextLength
	cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	cfg.Upstream.Timeout = DefaultForwardTimeout
	return cfg
}

// Load resolves the full configuration: defaults, then the optional YAML
// file at path (empty path skips the file), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.applyYAML(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromBytes resolves configuration from raw YAML plus environment
// variables. Used by tests and embedded deployments.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.applyYAML(data); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("INTERCEPTOR_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid INTERCEPTOR_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("TTC_KEY"); v != "" {
		c.Compression.APIKey = v
	}
	if v := os.Getenv("COMPRESSION_API"); v != "" {
		c.Compression.Endpoint = v
	}
	if v := os.Getenv("COMPRESSION_AGGRESSIVENESS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid COMPRESSION_AGGRESSIVENESS %q: %w", v, err)
		}
		c.Compression.Aggressiveness = f
	}
	if v := os.Getenv("MIN_TEXT_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MIN_TEXT_LENGTH %q: %w", v, err)
		}
		c.Compression.MinTextLength = n
	}
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("TELEMETRY_LOG"); v != "" {
		c.Monitoring.TelemetryPath = v
	}
	if v := os.Getenv("SAVINGS_DB"); v != "" {
		c.Monitoring.SavingsDBPath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Monitoring.LogFile = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Compression.Aggressiveness < 0 || c.Compression.Aggressiveness > 1 {
		return fmt.Errorf("aggressiveness must be in [0.0, 1.0], got %v", c.Compression.Aggressiveness)
	}
	if c.Compression.MinTextLength < 0 {
		return fmt.Errorf("min_text_length must be >= 0, got %d", c.Compression.MinTextLength)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}
	return nil
}

// CompressionEnabled reports whether an API key is configured. Without a
// key the proxy degrades to pure passthrough.
func (c *Config) CompressionEnabled() bool {
	return c.Compression.APIKey != ""
}
