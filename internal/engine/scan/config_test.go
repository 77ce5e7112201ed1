package scan

import (
	"testing"

	"modscan/internal/engine/filter"

	"github.com/stretchr/testify/assert"
)

func TestConfigWithDoesNotAlias(t *testing.T) {
	base := NewConfig().WithInclude("App.")
	a := base.WithInclude("Lib.")
	b := base.WithInclude("Tools.")

	assert.Equal(t, []string{"App."}, base.Include)
	assert.Equal(t, []string{"App.", "Lib."}, a.Include)
	assert.Equal(t, []string{"App.", "Tools."}, b.Include)
}

func TestConfigAccumulates(t *testing.T) {
	cfg := NewConfig().
		WithInclude("App.", "App.").
		WithExclude("App.Internal").
		WithIgnore("Tests").
		WithIgnore("Mocks").
		WithSeeds(mod("App.Core")).
		WithDeepScan().
		WithForceLoad()

	assert.Equal(t, []string{"App.", "App."}, cfg.Include)
	assert.Equal(t, []string{"Tests", "Mocks"}, cfg.Ignore)
	assert.Len(t, cfg.Seeds, 1)
	assert.True(t, cfg.DeepScan)
	assert.True(t, cfg.ForceLoad)
	assert.NoError(t, cfg.Validate())
}

func TestWithExcludeToolchain(t *testing.T) {
	cfg := NewConfig().WithExclude("Vendor.").WithExcludeToolchain()
	assert.Equal(t, append([]string{"Vendor."}, filter.ToolchainPrefixes...), cfg.Exclude)
}

func TestWithExcludeTestify(t *testing.T) {
	base := NewConfig().WithExclude("Vendor.")
	cfg := base.WithExcludeTestify()
	assert.Equal(t, []string{"Vendor.", filter.TestifyPrefix}, cfg.Exclude)
	assert.Equal(t, []string{"Vendor."}, base.Exclude)
}
