// Package config loads gateway configuration from an optional YAML file
// with environment variable overrides layered on top, env winning since
// that's where operators put secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TCPPort       int           `yaml:"tcp_port"`
	StatusPort    int           `yaml:"status_port"`
	FleetAPIURL   string        `yaml:"fleet_api_url"`
	SharedSecret  string        `yaml:"-"` // never read from file, env only
	LogLevel      string        `yaml:"log_level"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SinkQueueSize int           `yaml:"sink_queue_size"`
	OTelExporter  string        `yaml:"otel_exporter"`
}

func defaults() *Config {
	return &Config{
		TCPPort:       5000,
		StatusPort:    3000,
		LogLevel:      "info",
		IdleTimeout:   5 * time.Minute,
		SinkQueueSize: 256,
		OTelExporter:  "none",
	}
}

// Load reads an optional YAML file at path (skipped entirely if path is
// empty or the file doesn't exist), then applies environment overrides,
// then validates that every required value is present.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TCP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TCPPort = n
		}
	}
	if v := os.Getenv("STATUS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StatusPort = n
		}
	}
	if v := os.Getenv("FLEET_API_URL"); v != "" {
		c.FleetAPIURL = v
	}
	if v := os.Getenv("SHARED_SECRET"); v != "" {
		c.SharedSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.IdleTimeout = d
		}
	}
	if v := os.Getenv("SINK_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SinkQueueSize = n
		}
	}
	if v := os.Getenv("OTEL_EXPORTER"); v != "" {
		c.OTelExporter = v
	}
}

func (c *Config) validate() error {
	var missing []string
	if c.FleetAPIURL == "" {
		missing = append(missing, "FLEET_API_URL")
	}
	if c.SharedSecret == "" {
		missing = append(missing, "SHARED_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %v", missing)
	}
	if c.TCPPort <= 0 || c.TCPPort > 65535 {
		return fmt.Errorf("config: invalid tcp_port %d", c.TCPPort)
	}
	if c.StatusPort <= 0 || c.StatusPort > 65535 {
		return fmt.Errorf("config: invalid status_port %d", c.StatusPort)
	}
	if c.SinkQueueSize <= 0 {
		return fmt.Errorf("config: invalid sink_queue_size %d", c.SinkQueueSize)
	}
	return nil
}
