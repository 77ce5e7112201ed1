package module

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, Key("App.Core"), Key("app.core"))
	assert.True(t, Equal("APP.CORE", "App.Core"))
	assert.False(t, Equal("App.Core", "App.Cor"))
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("resolve reference: %w", NotFound("App.Data"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "App.Data")
	assert.False(t, errors.Is(errors.New("permission denied"), ErrNotFound))
}

func TestModuleReferencesAreCopied(t *testing.T) {
	m := Module{Name: "App.Core", Refs: []string{"App.Data"}}
	refs := m.References()
	refs[0] = "mutated"
	assert.Equal(t, []string{"App.Data"}, m.References())
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(nil))
	assert.False(t, Valid(Module{Name: "  "}))
	assert.True(t, Valid(Module{Name: "App.Core"}))
}

func TestIdentities(t *testing.T) {
	hs := []Handle{Module{Name: "a"}, Module{Name: "b"}}
	assert.Equal(t, []string{"a", "b"}, Identities(hs))
}
