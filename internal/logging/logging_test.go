package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ble-link.klederson.com/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, closer, err := New(config.LogConfig{File: path, Level: "warn", Format: "text", MaxSizeMB: 1}, "test")
	require.NoError(t, err)

	logger.Info("dropped by level")
	logger.Warn("scan error", "err", "adapter busy")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "scan error")
	assert.Contains(t, out, "adapter busy")
	assert.Contains(t, out, config.AppName)
	assert.NotContains(t, out, "dropped by level")
}

func TestNewJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	logger, closer, err := New(config.LogConfig{File: path, Level: "debug", Format: "json", MaxSizeMB: 1}, "1.2.3")
	require.NoError(t, err)

	logger.Debug("connected", "device", "AA:BB")
	require.NoError(t, closer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var rec map[string]any
	require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
	assert.Equal(t, "connected", rec["msg"])
	assert.Equal(t, "AA:BB", rec["device"])
	assert.Equal(t, "1.2.3", rec["version"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{File: "stderr", Level: "chatty"}, "dev")
	assert.Error(t, err)
}
