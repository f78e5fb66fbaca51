package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// CurrentVersion is the only configuration file version understood
const CurrentVersion = 1

// Config represents the entire configuration file
type Config struct {
	Version int           `yaml:"version"`
	Serial  SerialConfig  `yaml:"serial"`
	Relay   RelayConfig   `yaml:"relay"`
	HTTP    HTTPConfig    `yaml:"http"`
	MDNS    MDNSConfig    `yaml:"mdns"`
	Logging LoggingConfig `yaml:"logging"`
}

// SerialConfig describes the boiler's service port
type SerialConfig struct {
	TTY            string        `yaml:"tty"`             // e.g. /dev/ttyUSB0
	Baud           int           `yaml:"baud"`            // 57600 for every known controller
	ReadTimeout    time.Duration `yaml:"read_timeout"`    // Per header/body read
	IgnoreChecksum bool          `yaml:"ignore_checksum"` // Accept responses with a bad checksum
}

// RelayConfig configures the TCP line relay
type RelayConfig struct {
	Listen           string `yaml:"listen"`             // host:port
	MaxLineLength    int    `yaml:"max_line_length"`    // Bytes buffered without a delimiter
	MaxPendingOutput int    `yaml:"max_pending_output"` // Unsent response bytes before a client is dropped
}

// HTTPConfig configures the optional HTTP listener (/ws, /metrics, /healthz).
// An empty Listen disables it.
type HTTPConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// MDNSConfig controls advertisement of the relay on the local network
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance,omitempty"` // Defaults to the hostname
}

// LoggingConfig mirrors logging.Options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`
	Format     string `yaml:"format,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// Default returns a configuration with every field set to its default
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Serial: SerialConfig{
			TTY:            "/dev/ttyUSB0",
			Baud:           57600,
			ReadTimeout:    time.Second,
			IgnoreChecksum: true,
		},
		Relay: RelayConfig{
			Listen:           ":8023",
			MaxLineLength:    4096,
			MaxPendingOutput: 1 << 20,
		},
		MDNS: MDNSConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks that the configuration can be used to start the relay
func (c *Config) Validate() error {
	var errs []error

	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if c.Serial.TTY == "" {
		errs = append(errs, errors.New("serial.tty is required"))
	}
	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud))
	}
	if c.Serial.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("serial.read_timeout must be positive, got %s", c.Serial.ReadTimeout))
	}
	if _, _, err := net.SplitHostPort(c.Relay.Listen); err != nil {
		errs = append(errs, fmt.Errorf("relay.listen: %w", err))
	}
	if c.Relay.MaxLineLength < 2 {
		errs = append(errs, fmt.Errorf("relay.max_line_length must be at least 2, got %d", c.Relay.MaxLineLength))
	}
	if c.Relay.MaxPendingOutput < 0 {
		errs = append(errs, fmt.Errorf("relay.max_pending_output must not be negative, got %d", c.Relay.MaxPendingOutput))
	}
	if c.HTTP.Listen != "" {
		if _, _, err := net.SplitHostPort(c.HTTP.Listen); err != nil {
			errs = append(errs, fmt.Errorf("http.listen: %w", err))
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
