// Package config handles loading and managing application configuration
// from YAML files, an optional .env file and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openclaw/qrform/render"
)

// QR holds the rendering options handed to the encoder.
type QR struct {
	Width      int    `yaml:"width"`
	Margin     int    `yaml:"margin"`
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	Level      string `yaml:"level"`
}

// History controls the generation log.
type History struct {
	Enabled bool `yaml:"enabled"`
}

// Config holds all application configuration values.
type Config struct {
	Port        int      `yaml:"port"`
	DataDir     string   `yaml:"data_dir"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
	SessionTTL  Duration `yaml:"session_ttl"`
	MaxSessions int      `yaml:"max_sessions"`
	QR          QR       `yaml:"qr"`
	History     History  `yaml:"history"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		Port:        8556,
		DataDir:     filepath.Join(homeDir, ".qrform"),
		LogLevel:    "info",
		LogFormat:   "text",
		SessionTTL:  Duration{30 * time.Minute},
		MaxSessions: 10000,
		QR: QR{
			Width:      render.DefaultWidth,
			Margin:     render.DefaultMargin,
			Foreground: render.DefaultForeground,
			Background: render.DefaultBackground,
			Level:      render.DefaultLevel,
		},
		History: History{Enabled: true},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. A .env file in the working directory
// is loaded into the environment first; QRFORM_* variables then override any
// file or default values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies QRFORM_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRFORM_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRFORM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRFORM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QRFORM_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("QRFORM_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = Duration{d}
		}
	}
	if v := os.Getenv("QRFORM_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSessions = n
		}
	}
	if v := os.Getenv("QRFORM_QR_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QR.Width = n
		}
	}
	if v := os.Getenv("QRFORM_QR_LEVEL"); v != "" {
		cfg.QR.Level = v
	}
	if v := os.Getenv("QRFORM_HISTORY_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.History.Enabled = true
		case "false", "0", "no":
			cfg.History.Enabled = false
		}
	}
}

func (c *Config) validate() error {
	if c.QR.Width <= 0 {
		return fmt.Errorf("qr.width must be positive, got %d", c.QR.Width)
	}
	if c.QR.Margin < 0 {
		return fmt.Errorf("qr.margin must not be negative, got %d", c.QR.Margin)
	}
	if _, err := render.ParseLevel(c.QR.Level); err != nil {
		return fmt.Errorf("qr.level: %w", err)
	}
	for name, v := range map[string]string{"qr.foreground": c.QR.Foreground, "qr.background": c.QR.Background} {
		if _, err := render.ParseColor(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// RenderOptions converts the qr section into encoder options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Width:      c.QR.Width,
		Margin:     c.QR.Margin,
		Foreground: c.QR.Foreground,
		Background: c.QR.Background,
		Level:      c.QR.Level,
	}
}

// EnsureDataDir creates the DataDir if it does not already exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}

// HistoryPath is the SQLite file used by the generation log.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}
