package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"tinygo.org/x/bluetooth"
)

const (
	// Scanner
	ScanWindow     = 5 * time.Second  // Scan auto-stops after this long
	ConnectTimeout = 20 * time.Second // Connect plus discovery
	SendTimeout    = 5 * time.Second

	// Signal chart
	ChartInterval = time.Second // One synthetic sample per interval
	ChartCapacity = 10          // Rolling buffer length
	ChartHeight   = 10          // Plot rows

	// ExcludedService is never subscribed to; its notifications error out on
	// the peripherals this tool was built against.
	ExcludedService = "e49a25f8-f69a-11e8-8eb2-f2801f1b9fd1"

	// Demo mode
	DemoAdvertiseInterval = 400 * time.Millisecond
	DemoNotifyInterval    = 2 * time.Second

	// Logging
	DefaultLogFile = "ble-link.log"

	// App
	AppName    = "BLE-LINK"
	AppVersion = "1.0"
)

// Config is the runtime configuration. Zero values are filled from Defaults.
type Config struct {
	Adapter          string        `yaml:"adapter"`
	ScanWindow       time.Duration `yaml:"scan_window"`
	ChartInterval    time.Duration `yaml:"chart_interval"`
	ExcludedServices []string      `yaml:"excluded_services"`
	ShowUnnamed      bool          `yaml:"show_unnamed"`
	Log              LogConfig     `yaml:"log"`
}

// LogConfig controls where and how the logger writes.
type LogConfig struct {
	File       string `yaml:"file"`   // path, or "stderr"
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Adapter:          "hci0",
		ScanWindow:       ScanWindow,
		ChartInterval:    ChartInterval,
		ExcludedServices: []string{ExcludedService},
		Log: LogConfig{
			File:       DefaultLogFile,
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  1,
			MaxBackups: 3,
		},
	}
}

// Load reads a YAML config file on top of Defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config and normalizes excluded service UUIDs to
// lowercase canonical form.
func (c *Config) Validate() error {
	if c.Adapter == "" {
		return errors.New("adapter must not be empty")
	}
	if c.ScanWindow <= 0 {
		return fmt.Errorf("scan_window must be positive, got %v", c.ScanWindow)
	}
	if c.ChartInterval <= 0 {
		return fmt.Errorf("chart_interval must be positive, got %v", c.ChartInterval)
	}

	normalized := make([]string, 0, len(c.ExcludedServices))
	for _, s := range c.ExcludedServices {
		uuid, err := bluetooth.ParseUUID(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid excluded service %q: %w", s, err)
		}
		normalized = append(normalized, strings.ToLower(uuid.String()))
	}
	c.ExcludedServices = normalized

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (allowed: text, json)", c.Log.Format)
	}
	if c.Log.File == "" {
		return errors.New("log file must not be empty")
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (allowed: debug, info, warn, error)", s)
	}
}
