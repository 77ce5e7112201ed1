package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadScans(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveScan(Snapshot{
		ScanID:    "scan-1",
		Timestamp: base,
		Driver:    "manifest",
		Seeds:     3,
		Visited:   3,
		Results:   1,
		Duration:  15 * time.Millisecond,
		Modules:   []string{"App.Core"},
	}))
	require.NoError(t, store.SaveScan(Snapshot{
		ScanID:            "scan-2",
		Timestamp:         base.Add(time.Minute),
		Driver:            "manifest",
		DeepScan:          true,
		ForceLoad:         true,
		Seeds:             3,
		Visited:           5,
		ReferencesDropped: 2,
		ResolveFailures:   1,
		Results:           2,
		Modules:           []string{"App.Core", "App.Data"},
	}))

	scans, err := store.LoadScans(0)
	require.NoError(t, err)
	require.Len(t, scans, 2)

	latest := scans[0]
	assert.Equal(t, "scan-2", latest.ScanID)
	assert.True(t, latest.DeepScan)
	assert.True(t, latest.ForceLoad)
	assert.Equal(t, 2, latest.ReferencesDropped)
	assert.Equal(t, 1, latest.ResolveFailures)
	assert.Equal(t, []string{"App.Core", "App.Data"}, latest.Modules)
	assert.True(t, latest.Timestamp.Equal(base.Add(time.Minute)))

	assert.Equal(t, 15*time.Millisecond, scans[1].Duration)

	limited, err := store.LoadScans(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "scan-2", limited[0].ScanID)
}

func TestLoadScansOrdersSubSecondTimestamps(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	older := time.Date(2026, 10, 18, 12, 0, 0, 120_000_000, time.UTC)
	newer := time.Date(2026, 10, 18, 12, 0, 0, 123_000_000, time.UTC)
	// RFC3339Nano trims trailing zeros, so ".12Z" sorts after ".123Z" as text.
	require.NoError(t, store.SaveScan(Snapshot{ScanID: "a-newer", Timestamp: newer}))
	require.NoError(t, store.SaveScan(Snapshot{ScanID: "b-older", Timestamp: older}))

	scans, err := store.LoadScans(1)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "a-newer", scans[0].ScanID)
	assert.True(t, scans[0].Timestamp.Equal(newer))

	all, err := store.LoadScans(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b-older", all[1].ScanID)
	assert.True(t, all[1].Timestamp.Equal(older))
}

func TestSaveScanRequiresID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.SaveScan(Snapshot{}))
}

func TestSaveScanDuplicateID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveScan(Snapshot{ScanID: "dup", Modules: []string{"a"}}))
	assert.Error(t, store.SaveScan(Snapshot{ScanID: "dup"}))

	scans, err := store.LoadScans(0)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, []string{"a"}, scans[0].Modules)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)

	_, err = Open(t.TempDir())
	assert.Error(t, err)
}

func TestIsCorruptError(t *testing.T) {
	assert.True(t, IsCorruptError(errors.New("file is not a database")))
	assert.True(t, IsCorruptError(os.ErrInvalid))
	assert.False(t, IsCorruptError(nil))
}
