package static

import (
	"errors"
	"testing"

	"modscan/internal/engine/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIsIdempotentAndCaseInsensitive(t *testing.T) {
	r := New(module.Module{Name: "App.Core", Refs: []string{"App.Data"}})

	h, err := r.Load("app.core")
	require.NoError(t, err)
	assert.Equal(t, "App.Core", h.Identity())

	_, err = r.Load("App.Core")
	require.NoError(t, err)

	assert.Len(t, r.Loaded(), 1)
	assert.True(t, r.IsLoaded("APP.CORE"))
}

func TestLoadUnknownModule(t *testing.T) {
	r := New()
	_, err := r.Load("Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, module.ErrNotFound))
	assert.Empty(t, r.Loaded())
}

func TestLoadedKeepsLoadOrder(t *testing.T) {
	r := New(
		module.Module{Name: "a"},
		module.Module{Name: "b"},
		module.Module{Name: "c"},
	)
	require.NoError(t, r.Preload("c", "a"))

	assert.Equal(t, []string{"c", "a"}, module.Identities(r.Loaded()))
}

func TestAddReplacesDefinition(t *testing.T) {
	r := New(module.Module{Name: "a", Refs: []string{"b"}})
	r.Add(module.Module{Name: "A", Refs: []string{"c"}}, module.Module{Name: ""})

	mods := r.Modules()
	require.Len(t, mods, 1)
	assert.Equal(t, []string{"c"}, mods[0].Refs)
}

func TestEntry(t *testing.T) {
	r := New(module.Module{Name: "main"})
	_, ok := r.Entry()
	assert.False(t, ok)

	require.Error(t, r.SetEntry("other"))
	require.NoError(t, r.SetEntry("main"))

	h, ok := r.Entry()
	require.True(t, ok)
	assert.Equal(t, "main", h.Identity())
}
