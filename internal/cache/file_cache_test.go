package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Hits  int      `json:"hits"`
	Links []string `json:"links"`
}

func TestFileCacheRoundTrip(t *testing.T) {
	fc := NewFileCache[page](filepath.Join(t.TempDir(), "cmr"), 0)
	key := fc.GenerateKey("SPL2SMAP_S", "003", "9.0,35.7,9.8,36.6")

	_, ok := fc.Get(key)
	assert.False(t, ok)

	want := page{Hits: 2, Links: []string{"a.h5", "b.h5"}}
	require.NoError(t, fc.Set(key, want))

	got, ok := fc.Get(key)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFileCacheGenerateKey(t *testing.T) {
	fc := NewFileCache[page](t.TempDir(), 0)
	assert.Equal(t, "a|1", fc.GenerateKey("a", 1))
	assert.NotEqual(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 2))
	assert.NotEqual(t, fc.GenerateKey("a_b"), fc.GenerateKey("a", "b"))
	assert.NotEqual(t, fc.path("a|1"), fc.path("a|2"))
}

func TestFileCacheCorruptedEntryRemoved(t *testing.T) {
	fc := NewFileCache[page](t.TempDir(), 0)
	require.NoError(t, fc.Set("k", page{Hits: 1}))

	corrupted := `{"request":"k","data":{"hits":5,"links":null},"created_at":"2024-01-01T00:00:00Z","checksum":"deadbeef"}`
	require.NoError(t, os.WriteFile(fc.path("k"), []byte(corrupted), 0644))

	_, ok := fc.Get("k")
	assert.False(t, ok)
	assert.NoFileExists(t, fc.path("k"))
}

func TestFileCacheRequestMismatch(t *testing.T) {
	fc := NewFileCache[page](t.TempDir(), 0)
	require.NoError(t, fc.Set("k", page{Hits: 1}))

	// an entry stored under another request is never served
	data, err := os.ReadFile(fc.path("k"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fc.path("other"), data, 0644))

	_, ok := fc.Get("other")
	assert.False(t, ok)
}

func TestFileCacheExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fc := NewFileCache[page](t.TempDir(), time.Hour)
	fc.now = func() time.Time { return now }
	require.NoError(t, fc.Set("k", page{Hits: 1}))

	now = now.Add(59 * time.Minute)
	_, ok := fc.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = fc.Get("k")
	assert.False(t, ok)
	assert.NoFileExists(t, fc.path("k"))
}

func TestFileCachePrune(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fc := NewFileCache[page](t.TempDir(), time.Hour)
	fc.now = func() time.Time { return now }
	require.NoError(t, fc.Set("old", page{Hits: 1}))

	now = now.Add(2 * time.Hour)
	require.NoError(t, fc.Set("fresh", page{Hits: 2}))
	require.NoError(t, os.WriteFile(fc.path("broken"), []byte("{"), 0644))

	removed, err := fc.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := fc.Get("fresh")
	assert.True(t, ok)
}

func TestFileCacheClear(t *testing.T) {
	fc := NewFileCache[page](filepath.Join(t.TempDir(), "c"), 0)
	require.NoError(t, fc.Set("k", page{Hits: 1}))
	require.NoError(t, fc.Clear())

	_, ok := fc.Get("k")
	assert.False(t, ok)
}
