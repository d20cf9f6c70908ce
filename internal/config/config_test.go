package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "hci0", cfg.Adapter)
	assert.Equal(t, 5*time.Second, cfg.ScanWindow)
	assert.Equal(t, time.Second, cfg.ChartInterval)
	assert.Equal(t, []string{ExcludedService}, cfg.ExcludedServices)
	assert.False(t, cfg.ShowUnnamed)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().ScanWindow, cfg.ScanWindow)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ble-link.yaml")
	content := `
adapter: hci1
scan_window: 8s
chart_interval: 500ms
show_unnamed: true
excluded_services:
  - "E49A25F8-F69A-11E8-8EB2-F2801F1B9FD1"
  - "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
log:
  file: /tmp/x.log
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hci1", cfg.Adapter)
	assert.Equal(t, 8*time.Second, cfg.ScanWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.ChartInterval)
	assert.True(t, cfg.ShowUnnamed)
	assert.Equal(t, []string{
		"e49a25f8-f69a-11e8-8eb2-f2801f1b9fd1",
		"6e400001-b5a3-f393-e0a9-e50e24dcca9e",
	}, cfg.ExcludedServices)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Unset nested fields keep their defaults.
	assert.Equal(t, 3, cfg.Log.MaxBackups)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "adapter: [\n"},
		{"negative window", "scan_window: -1s\n"},
		{"zero chart interval", "chart_interval: 0s\n"},
		{"bad uuid", "excluded_services: [\"not-a-uuid\"]\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"empty adapter", "adapter: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}
