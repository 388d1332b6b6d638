package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.QR.Width != 300 || cfg.QR.Margin != 2 {
		t.Errorf("qr defaults = %+v", cfg.QR)
	}
	if cfg.QR.Foreground != "#000000" || cfg.QR.Background != "#ffffff" {
		t.Errorf("colour defaults = %q/%q", cfg.QR.Foreground, cfg.QR.Background)
	}
	if cfg.SessionTTL.Duration != 30*time.Minute {
		t.Errorf("session ttl = %v", cfg.SessionTTL)
	}
	if !cfg.History.Enabled {
		t.Error("history disabled by default")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
port: 9000
log_level: debug
session_ttl: 5m
qr:
  width: 512
  level: H
history:
  enabled: true
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("QRFORM_PORT", "9100")
	t.Setenv("QRFORM_HISTORY_ENABLED", "no")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.SessionTTL.Duration != 5*time.Minute {
		t.Errorf("session ttl = %v, want 5m", cfg.SessionTTL)
	}
	if cfg.QR.Width != 512 || cfg.QR.Level != "H" || cfg.QR.Margin != 2 {
		t.Errorf("qr = %+v", cfg.QR)
	}
	if cfg.History.Enabled {
		t.Error("history still enabled after env override")
	}

	opts := cfg.RenderOptions()
	if opts.Width != 512 || opts.Foreground != "#000000" {
		t.Errorf("render options = %+v", opts)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad duration": "session_ttl: soon\n",
		"bad width":    "qr:\n  width: 0\n",
		"bad level":    "qr:\n  level: X\n",
		"bad colour":   "qr:\n  foreground: black\n",
	}

	for name, yml := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("Load() succeeded, want error")
			}
		})
	}
}
