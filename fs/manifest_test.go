package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/staticgen"
	"github.com/fwojciec/staticgen/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(path, fingerprint string) staticgen.ManifestEntry {
	return staticgen.ManifestEntry{
		Path:        path,
		Fingerprint: fingerprint,
		Size:        int64(len(path)),
		WrittenAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestManifest_OpenManifest(t *testing.T) {
	t.Parallel()

	t.Run("missing file degrades to an empty manifest", func(t *testing.T) {
		t.Parallel()

		m := fs.OpenManifest(t.TempDir())
		assert.Empty(t, m.Entries())
	})

	t.Run("corrupt file degrades to an empty manifest", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, fs.ManifestFilename), []byte("{not json"), 0644))

		m := fs.OpenManifest(dir)
		assert.Empty(t, m.Entries())
	})

	t.Run("round-trips entries through flush and reload", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		m := fs.OpenManifest(dir)
		e := entry("blog/index.html", "abc123")
		e.Pushed = map[string]string{"prod": "abc123"}
		m.Upsert(e)
		m.Upsert(entry("index.html", "def456"))
		require.NoError(t, m.Flush())

		reloaded := fs.OpenManifest(dir)
		entries := reloaded.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "blog/index.html", entries[0].Path)
		assert.Equal(t, "abc123", entries[0].Fingerprint)
		assert.Equal(t, "abc123", entries[0].Pushed["prod"])
		assert.Equal(t, "index.html", entries[1].Path)
	})

	t.Run("ignores unknown fields for forward compatibility", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		data := `{"version":99,"entries":[{"path":"a.html","fingerprint":"x","futureField":true}],"futureTop":{}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, fs.ManifestFilename), []byte(data), 0644))

		m := fs.OpenManifest(dir)
		e, ok := m.Get("a.html")
		require.True(t, ok)
		assert.Equal(t, "x", e.Fingerprint)
	})
}

func TestManifest_Upsert(t *testing.T) {
	t.Parallel()

	t.Run("preserves pushed records across content updates", func(t *testing.T) {
		t.Parallel()

		m := fs.OpenManifest(t.TempDir())
		m.Upsert(entry("index.html", "v1"))
		m.SetPushed("index.html", "prod", "v1")

		m.Upsert(entry("index.html", "v2"))

		e, ok := m.Get("index.html")
		require.True(t, ok)
		assert.Equal(t, "v2", e.Fingerprint)
		assert.Equal(t, "v1", e.Pushed["prod"], "pushed record survives the update")
		assert.True(t, e.NeedsPush("prod"))
	})

	t.Run("returned copies do not alias internal state", func(t *testing.T) {
		t.Parallel()

		m := fs.OpenManifest(t.TempDir())
		m.Upsert(entry("index.html", "v1"))
		m.SetPushed("index.html", "prod", "v1")

		e, _ := m.Get("index.html")
		e.Pushed["prod"] = "tampered"

		fresh, _ := m.Get("index.html")
		assert.Equal(t, "v1", fresh.Pushed["prod"])
	})
}

func TestManifest_MarkDeleted(t *testing.T) {
	t.Parallel()

	t.Run("never-pushed entries are dropped immediately", func(t *testing.T) {
		t.Parallel()

		m := fs.OpenManifest(t.TempDir())
		m.Upsert(entry("local-only.html", "x"))

		m.MarkDeleted("local-only.html")

		_, ok := m.Get("local-only.html")
		assert.False(t, ok)
	})

	t.Run("pushed entries are flagged and kept", func(t *testing.T) {
		t.Parallel()

		m := fs.OpenManifest(t.TempDir())
		m.Upsert(entry("old.html", "x"))
		m.SetPushed("old.html", "prod", "x")

		m.MarkDeleted("old.html")

		e, ok := m.Get("old.html")
		require.True(t, ok)
		assert.True(t, e.Deleted)
	})

	t.Run("clearing the last pushed record drops a deleted entry", func(t *testing.T) {
		t.Parallel()

		m := fs.OpenManifest(t.TempDir())
		m.Upsert(entry("old.html", "x"))
		m.SetPushed("old.html", "prod", "x")
		m.SetPushed("old.html", "staging", "x")
		m.MarkDeleted("old.html")

		m.ClearPushed("old.html", "prod")
		_, ok := m.Get("old.html")
		require.True(t, ok, "staging still holds the path")

		m.ClearPushed("old.html", "staging")
		_, ok = m.Get("old.html")
		assert.False(t, ok)
	})
}

func TestManifest_Untouched(t *testing.T) {
	t.Parallel()

	m := fs.OpenManifest(t.TempDir())
	m.Upsert(entry("kept.html", "a"))
	m.Upsert(entry("stale-b.html", "b"))
	m.Upsert(entry("stale-a.html", "c"))
	m.Upsert(entry("deleted.html", "d"))
	m.SetPushed("deleted.html", "prod", "d")
	m.MarkDeleted("deleted.html")
	m.MarkTouched("kept.html")

	untouched := m.Untouched()
	require.Len(t, untouched, 2)
	assert.Equal(t, "stale-a.html", untouched[0].Path, "sorted by path")
	assert.Equal(t, "stale-b.html", untouched[1].Path)
}
