package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)
	require.NoError(t, s.Load())

	_, ok := s.Get("missing")
	assert.False(t, ok)

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, s.Delete("a"))
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestFileStoreSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := NewFileStore(path)
	require.NoError(t, s.Load())
	require.NoError(t, s.Set("key", "value"))

	reloaded := NewFileStore(path)
	require.NoError(t, reloaded.Load())

	v, ok := reloaded.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestFileStoreMissingFileStartsFresh(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "does", "not", "exist.json"))
	require.NoError(t, s.Load())

	_, ok := s.Get("anything")
	assert.False(t, ok)
}

func TestFileStoreCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewFileStore(path)
	require.NoError(t, s.Load())

	_, ok := s.Get("anything")
	assert.False(t, ok)

	// Writes recover the file.
	require.NoError(t, s.Set("key", "value"))
	reloaded := NewFileStore(path)
	require.NoError(t, reloaded.Load())
	v, ok := reloaded.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestFileStoreCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	s := NewFileStore(path)
	require.NoError(t, s.Load())
	require.NoError(t, s.Set("key", "value"))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
