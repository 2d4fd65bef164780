// Package fs provides filesystem-backed implementations: the JSON manifest
// store, the local output writer, and a directory publish backend.
package fs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fwojciec/staticgen"
)

// ManifestFilename is the manifest's file name inside the output directory.
const ManifestFilename = ".staticgen-manifest.json"

// manifestFormatVersion is written into the file for forward compatibility;
// readers ignore unknown fields, so newer engines can extend the format
// without invalidating existing manifests.
const manifestFormatVersion = 1

// manifestFile is the on-disk serialization: a keyed record list, stable and
// human-inspectable.
type manifestFile struct {
	Version int                      `json:"version"`
	Entries []staticgen.ManifestEntry `json:"entries"`
}

// Ensure Manifest implements staticgen.ManifestStore at compile time.
var _ staticgen.ManifestStore = (*Manifest)(nil)

// Manifest is a JSON-file-backed manifest store. All mutation is per-key
// atomic under one mutex; Flush persists via a temp file renamed into place
// so a crash never leaves a partially written manifest.
type Manifest struct {
	mu      sync.Mutex
	path    string
	entries map[string]*staticgen.ManifestEntry
	touched map[string]bool
}

// OpenManifest loads the manifest stored in dir. A missing or corrupt file
// degrades safely to an empty manifest: everything is treated as new.
func OpenManifest(dir string) *Manifest {
	m := &Manifest{
		path:    filepath.Join(dir, ManifestFilename),
		entries: make(map[string]*staticgen.ManifestEntry),
		touched: make(map[string]bool),
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return m
	}
	var file manifestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return m
	}
	for i := range file.Entries {
		e := file.Entries[i]
		m.entries[e.Path] = &e
	}
	return m
}

// Get returns a copy of the entry for path.
func (m *Manifest) Get(path string) (staticgen.ManifestEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return staticgen.ManifestEntry{}, false
	}
	return copyEntry(e), true
}

// Upsert replaces the entry for e.Path. Pushed records survive a content
// update so the publish diff can see the fingerprint mismatch.
func (m *Manifest) Upsert(e staticgen.ManifestEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.entries[e.Path]; ok && e.Pushed == nil {
		e.Pushed = prev.Pushed
	}
	stored := copyEntry(&e)
	m.entries[e.Path] = &stored
}

// MarkTouched records that path was produced by the current run.
func (m *Manifest) MarkTouched(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[path] = true
}

// SetPushed records that fingerprint was confirmed pushed to target.
func (m *Manifest) SetPushed(path, target, fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return
	}
	if e.Pushed == nil {
		e.Pushed = make(map[string]string)
	}
	e.Pushed[target] = fingerprint
}

// ClearPushed removes the pushed record for target. A deleted entry with no
// remaining pushed records is dropped entirely.
func (m *Manifest) ClearPushed(path, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return
	}
	delete(e.Pushed, target)
	if e.Deleted && len(e.Pushed) == 0 {
		delete(m.entries, path)
	}
}

// MarkDeleted flags a pruned path for remote deletion. An entry never pushed
// anywhere has nothing to delete remotely and is dropped immediately.
func (m *Manifest) MarkDeleted(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return
	}
	if len(e.Pushed) == 0 {
		delete(m.entries, path)
		return
	}
	e.Deleted = true
}

// Delete removes the entry for path.
func (m *Manifest) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, path)
}

// Untouched returns entries not touched by the current run and not already
// flagged deleted, sorted by path.
func (m *Manifest) Untouched() []staticgen.ManifestEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rtn []staticgen.ManifestEntry
	for path, e := range m.entries {
		if m.touched[path] || e.Deleted {
			continue
		}
		rtn = append(rtn, copyEntry(e))
	}
	sort.Slice(rtn, func(i, j int) bool { return rtn[i].Path < rtn[j].Path })
	return rtn
}

// Entries returns copies of all entries, sorted by path.
func (m *Manifest) Entries() []staticgen.ManifestEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	rtn := make([]staticgen.ManifestEntry, 0, len(m.entries))
	for _, e := range m.entries {
		rtn = append(rtn, copyEntry(e))
	}
	sort.Slice(rtn, func(i, j int) bool { return rtn[i].Path < rtn[j].Path })
	return rtn
}

// Flush writes the manifest to a temporary file and renames it into place.
func (m *Manifest) Flush() error {
	entries := m.Entries()

	data, err := json.MarshalIndent(manifestFile{
		Version: manifestFormatVersion,
		Entries: entries,
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

func copyEntry(e *staticgen.ManifestEntry) staticgen.ManifestEntry {
	rtn := *e
	if e.Pushed != nil {
		rtn.Pushed = make(map[string]string, len(e.Pushed))
		for k, v := range e.Pushed {
			rtn.Pushed[k] = v
		}
	}
	return rtn
}
