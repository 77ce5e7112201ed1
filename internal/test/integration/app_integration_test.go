package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"modscan/internal/core/app"
	"modscan/internal/core/config"
	"modscan/internal/core/ports"
	"modscan/internal/registry/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostManifest = `
entry = "App.Host"

[[module]]
name = "App.Host"
references = ["App.Core", "Lib.Json"]
loaded = true

[[module]]
name = "App.Core"
references = ["App.Data", "App.Internal.X", "App.Missing"]

[[module]]
name = "App.Data"
references = ["app.core"]
`

const libManifest = `
[[module]]
name = "App.Internal.X"

[[module]]
name = "Lib.Json"
loaded = true
`

const configBody = `version = 1

[scan]
include = ["App."]
exclude = ["App.Internal"]

[registry]
driver = "sqlite"
manifest_dir = "modules"
db_path = "state/catalog.db"
import_manifests = true

[history]
enabled = true
path = "state/history.db"
`

func createWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	modules := filepath.Join(root, "modules")
	require.NoError(t, os.MkdirAll(filepath.Join(modules, "libs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modules, "host.toml"), []byte(hostManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(modules, "libs", "lib.toml"), []byte(libManifest), 0o644))

	cfgPath := filepath.Join(root, "modscan.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configBody), 0o644))
	return cfgPath
}

func TestFullPipelineIntegration(t *testing.T) {
	cfgPath := createWorkspace(t)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))

	appInstance, err := app.New(cfg)
	require.NoError(t, err)
	svc := appInstance.ScanService()
	ctx := context.Background()

	shallow, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"App.Host"}, shallow.Modules)

	deep, err := svc.RunScan(ctx, ports.ScanRequest{DeepScan: true, ForceLoad: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"App.Host", "App.Core", "App.Data"}, deep.Modules)
	assert.Equal(t, 1, deep.Stats.ResolveFailures, "App.Missing is unresolvable")
	assert.Positive(t, deep.Stats.ReferencesDropped)

	scans, err := svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, scans, 2)

	require.NoError(t, appInstance.Close(ctx))

	// Modules loaded by the deep scan stay loaded in the catalog.
	cat, err := catalog.Open(cfg.Registry.DBPath, 0, nil)
	require.NoError(t, err)
	var loaded []string
	for _, h := range cat.Loaded() {
		loaded = append(loaded, h.Identity())
	}
	require.NoError(t, cat.Close())
	assert.Equal(t, []string{"App.Host", "Lib.Json", "App.Core", "App.Data"}, loaded)

	// A fresh process sees the catalog state, so a shallow scan now includes them.
	again, err := app.New(cfg)
	require.NoError(t, err)
	defer again.Close(ctx)

	res, err := again.ScanService().RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"App.Host", "App.Core", "App.Data"}, res.Modules)
}

func TestExcludedSeedIsFilteredOut(t *testing.T) {
	cfgPath := createWorkspace(t)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))
	cfg.Scan.Seeds = []string{"App.Internal.X"}
	cfg.History.Enabled = false

	appInstance, err := app.New(cfg)
	require.NoError(t, err)
	defer appInstance.Close(context.Background())

	res, err := appInstance.ScanService().RunScan(context.Background(), ports.ScanRequest{})
	require.NoError(t, err)
	assert.NotContains(t, res.Modules, "App.Internal.X")
	assert.Equal(t, []string{"App.Host"}, res.Modules)
}
