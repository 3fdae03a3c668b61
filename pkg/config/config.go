package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default listen addresses.
const (
	DefaultHTTPAddr = "0.0.0.0:3000"
	DefaultOSCAddr  = "0.0.0.0:3001"
)

// Config is the server configuration.
type Config struct {
	// Name is the server name reported in HOST_INFO and used as the
	// mDNS instance name.
	Name string `yaml:"name"`

	// HTTPAddr is the HTTP/WebSocket listen address (host:port).
	HTTPAddr string `yaml:"http_addr"`

	// OSCAddr is the OSC/UDP listen address (host:port). Empty
	// disables the OSC transport.
	OSCAddr string `yaml:"osc_addr"`

	// MDNS enables service advertising over mDNS.
	MDNS bool `yaml:"mdns"`

	// LogLevel is the operational log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// ProtocolLog is a path for the CBOR protocol event log. Empty
	// disables file capture.
	ProtocolLog string `yaml:"protocol_log"`

	// QueueLen is the per-subscriber notification buffer. Zero selects
	// the notifier default.
	QueueLen int `yaml:"queue_len"`
}

// Default returns the configuration used when no file is given: a
// local server with both transports on, mDNS advertising and info
// logging.
func Default() Config {
	return Config{
		Name:     "oscquery-go",
		HTTPAddr: DefaultHTTPAddr,
		OSCAddr:  DefaultOSCAddr,
		MDNS:     true,
		LogLevel: "info",
	}
}

// Parse parses YAML bytes over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks addresses and the log level.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	if _, _, err := net.SplitHostPort(c.HTTPAddr); err != nil {
		return fmt.Errorf("invalid http_addr %q: %w", c.HTTPAddr, err)
	}
	if c.OSCAddr != "" {
		if _, _, err := net.SplitHostPort(c.OSCAddr); err != nil {
			return fmt.Errorf("invalid osc_addr %q: %w", c.OSCAddr, err)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.QueueLen < 0 {
		return fmt.Errorf("queue_len must not be negative")
	}
	return nil
}

// SlogLevel maps the configured log level to its slog value.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
}
