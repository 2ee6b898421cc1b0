package artifact

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/pkg/config"
)

func TestLocalStore_UploadDownloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(&config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)

	ctx := context.Background()
	result := &export.Result{
		Modules: []export.ModuleExport{{ModuleID: 1, SourceFilename: "a.c"}},
		Mutated: true,
	}

	require.NoError(t, SaveDump(ctx, store, "run-1.json", result))

	ok, err := store.Exists(ctx, "run-1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := LoadDump(ctx, store, "run-1.json")
	require.NoError(t, err)
	assert.Equal(t, result.Mutated, got.Mutated)
	require.Len(t, got.Modules, 1)
	assert.Equal(t, uint32(1), got.Modules[0].ModuleID)

	require.NoError(t, store.Delete(ctx, "run-1.json"))
	ok, err = store.Exists(ctx, "run-1.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStore_GetURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(&config.StorageConfig{Type: "local", LocalPath: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.json"), store.GetURL("x.json"))
}

func TestNewStore_InvalidCOSConfig(t *testing.T) {
	_, err := NewStore(&config.StorageConfig{Type: "cos"})
	assert.Error(t, err)
}

func TestNewStore_UnsupportedType(t *testing.T) {
	_, err := NewStore(&config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
