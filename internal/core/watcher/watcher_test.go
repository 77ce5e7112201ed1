package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, []string{"*.toml"}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrInvalid))
	assert.Nil(t, w)
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	_, err := NewWatcher(100*time.Millisecond, []string{"[unclosed"}, nil, func([]string) {})
	assert.Error(t, err)
}

func TestIsManifest(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, []string{"*.toml", "modules.*.txt"}, nil, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.IsManifest("/tmp/modules/app.toml"))
	assert.True(t, w.IsManifest("modules.core.txt"))
	assert.False(t, w.IsManifest("/tmp/modules/readme.md"))
}

func waitFor(t *testing.T, ch <-chan []string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case paths := <-ch:
			if slices.Contains(paths, want) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestWatcherReportsManifestChanges(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, []string{"*.toml"}, []string{"skip"}, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch([]string{dir}))

	manifest := filepath.Join(dir, "core.toml")
	require.NoError(t, os.WriteFile(manifest, []byte(`[[module]]
name = "App.Core"
`), 0o644))
	waitFor(t, changed, manifest)

	other := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	select {
	case paths := <-changed:
		assert.NotContains(t, paths, other)
	case <-time.After(300 * time.Millisecond):
	}

	subdir := filepath.Join(dir, "team")
	require.NoError(t, os.MkdirAll(subdir, 0o755))
	time.Sleep(100 * time.Millisecond)
	nested := filepath.Join(subdir, "data.toml")
	require.NoError(t, os.WriteFile(nested, []byte(`[[module]]
name = "App.Data"
`), 0o644))
	waitFor(t, changed, nested)
}

func TestWatcherSkipsExcludedAndHiddenDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "skip"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

	w, err := NewWatcher(10*time.Millisecond, []string{"*.toml"}, []string{"skip"}, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.shouldExcludeDir(filepath.Join(dir, "skip")))
	assert.True(t, w.shouldExcludeDir(filepath.Join(dir, ".git")))
	assert.False(t, w.shouldExcludeDir(filepath.Join(dir, "team")))
}

func TestWatcherDebounceBatchesChanges(t *testing.T) {
	var batches [][]string
	done := make(chan struct{}, 1)
	w, err := NewWatcher(80*time.Millisecond, []string{"*.toml"}, nil, func(paths []string) {
		batches = append(batches, paths)
		done <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Close()

	w.scheduleChange("a.toml")
	w.scheduleChange("b.toml")
	w.scheduleChange("a.toml")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}
	require.Len(t, batches, 1)
	assert.ElementsMatch(t, []string{"a.toml", "b.toml"}, batches[0])
}
