package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "plcctl.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_AppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, "path: 192.168.1.10:44818\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.10:44818", cfg.Path)
	assert.True(t, cfg.InitTags)
	assert.True(t, cfg.InitProgramTags)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestLoad_DocumentOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "path: 10.0.0.5:44818\nlarge_packets: false\nlog_level: debug\nconnection_timeout_seconds: 2.5\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.LargePackets)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
}

func TestLoad_MissingPathIsAnError(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
