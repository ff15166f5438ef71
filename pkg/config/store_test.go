package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSection("solvers", map[string]interface{}{
		"capsolver_api_key": "key-123",
	}))
	require.NoError(t, store.Save())

	// A fresh store over the same path sees the persisted data.
	reloaded, err := NewFileStore(path)
	require.NoError(t, err)

	data, err := reloaded.GetSection("solvers")
	require.NoError(t, err)
	assert.Equal(t, "key-123", data["capsolver_api_key"])
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	data, err := store.GetSection("anything")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileStore_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStore_SectionCopiesAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	original := map[string]interface{}{"key": "before"}
	require.NoError(t, store.SetSection("test", original))

	// Mutating the caller's map must not leak into the store.
	original["key"] = "after"

	data, err := store.GetSection("test")
	require.NoError(t, err)
	assert.Equal(t, "before", data["key"])
}
