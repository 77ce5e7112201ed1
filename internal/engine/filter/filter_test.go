package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyListsNeverMatch(t *testing.T) {
	assert.False(t, IsIncluded("App.Core", nil))
	assert.False(t, IsExcluded("App.Core", nil))
	assert.False(t, IsIgnored("App.Core", []string{}))

	// No include patterns means nothing survives, not everything.
	assert.False(t, Set{}.Survives("App.Core"))
}

func TestPrefixAndSubstringMatching(t *testing.T) {
	tests := []struct {
		name string
		id   string
		set  Set
		want bool
	}{
		{"included", "App.Core", Set{Include: []string{"App."}}, true},
		{"include is prefix only", "My.App.Core", Set{Include: []string{"App."}}, false},
		{"include is case sensitive", "app.core", Set{Include: []string{"App."}}, false},
		{"second include matches", "Lib.Util", Set{Include: []string{"App.", "Lib."}}, true},
		{"exclude wins over include", "App.Internal.X", Set{Include: []string{"App."}, Exclude: []string{"App.Internal"}}, false},
		{"exclude not matching", "App.Core", Set{Include: []string{"App."}, Exclude: []string{"App.Internal"}}, true},
		{"ignore by substring", "App.Tests.Core", Set{Include: []string{"App."}, Ignore: []string{"Tests"}}, false},
		{"ignore independent of exclude", "App.Mocks", Set{Include: []string{"App."}, Exclude: []string{"Other."}, Ignore: []string{"Mock"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Survives(tt.id))
		})
	}
}

func TestReason(t *testing.T) {
	set := Set{Include: []string{"App."}, Exclude: []string{"App.Internal"}, Ignore: []string{"Generated"}}
	assert.Equal(t, "not_included", set.Reason("Lib.Core"))
	assert.Equal(t, "excluded", set.Reason("App.Internal.X"))
	assert.Equal(t, "ignored", set.Reason("App.Generated"))
	assert.Equal(t, "", set.Reason("App.Core"))
}

func TestToolchainPrefixes(t *testing.T) {
	set := Set{Include: []string{""}, Exclude: ToolchainPrefixes}
	assert.False(t, set.Survives("golang.org/x/text"))
	assert.False(t, set.Survives("std"))
	assert.True(t, set.Survives("github.com/acme/app"))
}

func TestTestifyPrefix(t *testing.T) {
	set := Set{Include: []string{"github.com/"}, Exclude: []string{TestifyPrefix}}
	assert.False(t, set.Survives("github.com/stretchr/testify"))
	assert.False(t, set.Survives("github.com/stretchr/testify/require"))
	assert.True(t, set.Survives("github.com/stretchr/objx"))
}
