package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempHome(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	SetConfigDir(tmp)
	t.Cleanup(func() { SetConfigDir("") })
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	withTempHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DefaultModulesFilter)
	assert.False(t, cfg.DefaultDeepScan)
	assert.False(t, cfg.DefaultNoHooks)
}

func TestLoadValidConfig(t *testing.T) {
	withTempHome(t)

	content := `default_modules_filter = "x64"
default_deep_scan = true

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(filepath.Join(Home(), "config.toml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "x64", cfg.DefaultModulesFilter)
	assert.True(t, cfg.DefaultDeepScan)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadMalformedTOML(t *testing.T) {
	withTempHome(t)

	require.NoError(t, os.WriteFile(filepath.Join(Home(), "config.toml"), []byte("not valid [[ toml"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config.toml")
}

func TestSetThenGetRoundtrip(t *testing.T) {
	withTempHome(t)

	require.NoError(t, Set("default_modules_filter", "x86"))

	val, err := Get("default_modules_filter")
	require.NoError(t, err)
	assert.Equal(t, "x86", val)
}

func TestGetUnknownKey(t *testing.T) {
	withTempHome(t)

	_, err := Get("nonexistent_key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestSetUnknownKey(t *testing.T) {
	withTempHome(t)

	err := Set("nonexistent_key", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestHomeRespectsEnvVar(t *testing.T) {
	SetConfigDir("")
	t.Setenv("PESCAN_HOME", "/tmp/pescan-env-home")
	assert.Equal(t, "/tmp/pescan-env-home", Home())
}
