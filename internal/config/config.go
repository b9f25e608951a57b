// Package config loads the configuration of the ssewatch command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// The endpoint to connect to. Usually given as a command argument.
	URL string `yaml:"url"`
	// Deliver keep-alive events instead of dropping them.
	KeepAliveFriendly bool `yaml:"keep_alive_friendly"`
	// Reject endpoints that are neither https nor localhost.
	SecureOnly bool `yaml:"secure_only"`
	// Reconnection attempts after a failure; negative retries forever.
	MaxRetries       int               `yaml:"max_retries"`
	ReconnectionTime time.Duration     `yaml:"reconnection_time"`
	Headers          map[string]string `yaml:"headers"`
	LastEventID      string            `yaml:"last_event_id"`
	// Address of the Prometheus /metrics endpoint. Disabled if empty.
	MetricsAddr string `yaml:"metrics_addr"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		SecureOnly:       true,
		MaxRetries:       -1,
		ReconnectionTime: 3 * time.Second,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

var errNoURL = errors.New("no endpoint URL configured")

// Validate checks the values that cannot be checked by the consumers of the config.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errNoURL
	}
	if c.ReconnectionTime < 0 {
		return fmt.Errorf("reconnection_time must not be negative, got %s", c.ReconnectionTime)
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses the configured log level.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(l.Level)
}
