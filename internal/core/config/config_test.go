package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	coreerrors "modscan/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modscan.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[scan]
include = ["App."]
exclude = ["App.Internal"]
ignore = ["Tests"]
seeds = ["App.Core", " "]
issuer = " App.Host "
deep_scan = true
force_load = true

[registry]
driver = "SQLite"
db_path = "state/catalog.db"
import_manifests = true
manifest_dir = "/abs/modules"

[history]
enabled = true

[watch]
debounce = "1s"

[output]
format = "json"
path = "out/result.json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	dir := filepath.Dir(path)

	assert.Equal(t, []string{"App."}, cfg.Scan.Include)
	assert.Equal(t, []string{"App.Core"}, cfg.Scan.Seeds)
	assert.Equal(t, "App.Host", cfg.Scan.Issuer)
	assert.True(t, cfg.Scan.DeepScan)
	assert.True(t, cfg.Scan.ExcludeTestify)
	assert.False(t, cfg.Scan.ExcludeToolchain)
	assert.True(t, cfg.Scan.ForceLoad)
	assert.Equal(t, DriverSQLite, cfg.Registry.Driver)
	assert.Equal(t, filepath.Join(dir, "state", "catalog.db"), cfg.Registry.DBPath)
	assert.Equal(t, "/abs/modules", cfg.Registry.ManifestDir)
	assert.Equal(t, filepath.Join(dir, "data", "history.db"), cfg.History.Path)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, filepath.Join(dir, "out", "result.json"), cfg.Output.Path)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ``))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Empty(t, cfg.Scan.Include)
	assert.Equal(t, DriverManifest, cfg.Registry.Driver)
	assert.Equal(t, []string{"*.toml"}, cfg.Registry.ManifestPatterns)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 1.0, cfg.Watch.Rate)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Equal(t, 9464, cfg.Observability.Port)
	assert.Equal(t, "modscan", cfg.Observability.ServiceName)
}

func TestLoadError(t *testing.T) {
	_, err := Load("nonexistent.toml")
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad = toml = format"))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
}

func TestValidate(t *testing.T) {
	tests := map[string]string{
		"unknown driver":      "[registry]\ndriver = \"etcd\"",
		"bad pattern":         "[registry]\nmanifest_patterns = [\"\"]",
		"import without db":   "[registry]\nimport_manifests = true",
		"bad format":          "[output]\nformat = \"yaml\"",
		"bad port":            "[observability]\nport = 70000",
		"tracing no endpoint": "[observability]\nenable_tracing = true",
		"future version":      "version = 3",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, content))
			require.NoError(t, err)
			err = Validate(cfg)
			require.Error(t, err)
			assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
		})
	}
}

func TestEnvOverrideRepairsFileValue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[output]\nformat = \"xml\""))
	require.NoError(t, err)
	require.Error(t, Validate(cfg))

	t.Setenv("MODSCAN_OUTPUT_FORMAT", "json")
	ApplyEnvOverrides(cfg)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.NoError(t, Validate(cfg))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MODSCAN_SCAN_INCLUDE", "App., Lib.,")
	t.Setenv("MODSCAN_SCAN_DEEP_SCAN", "TRUE")
	t.Setenv("MODSCAN_SCAN_EXCLUDE_TESTIFY", "true")
	t.Setenv("MODSCAN_REGISTRY_DRIVER", " BuildInfo ")
	t.Setenv("MODSCAN_OBSERVABILITY_PORT", "not-a-number")
	t.Setenv("MODSCAN_WATCH_DEBOUNCE", "2s")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, []string{"App.", "Lib."}, cfg.Scan.Include)
	assert.True(t, cfg.Scan.DeepScan)
	assert.Equal(t, DriverBuildInfo, cfg.Registry.Driver)
	assert.Equal(t, 9464, cfg.Observability.Port)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.NoError(t, Validate(cfg))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MODSCAN_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("MODSCAN_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("MODSCAN_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("MODSCAN_TEST_DOTENV"))
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, "/base/x", ResolveRelative("/base", "x"))
	assert.Equal(t, "/abs", ResolveRelative("/base", "/abs"))
}
