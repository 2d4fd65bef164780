package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/staticgen"
)

// Fingerprint computes the content fingerprint recorded in the manifest.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// Ensure Writer implements staticgen.Writer at compile time.
var _ staticgen.Writer = (*Writer)(nil)

// Writer persists rendered pages under a base directory and keeps the
// manifest in step. A path is only ever written after the manifest confirms
// the content changed, and the manifest entry is only updated after the file
// is durably on disk.
type Writer struct {
	baseDir  string
	manifest staticgen.ManifestStore

	mu      sync.Mutex
	claimed map[string]bool
}

// NewWriter creates a Writer rooted at baseDir, recording writes in manifest.
func NewWriter(baseDir string, manifest staticgen.ManifestStore) *Writer {
	return &Writer{
		baseDir:  baseDir,
		manifest: manifest,
		claimed:  make(map[string]bool),
	}
}

// Write persists one rendered page. The uniqueness invariant makes a repeat
// path within a run a bug upstream; writes to the same path are serialized
// and the first writer wins with ECOLLISION for the rest. When the manifest
// already records the content's fingerprint and the file exists, the
// physical write is skipped and the path is still marked current.
func (w *Writer) Write(ctx context.Context, page *staticgen.RenderedPage) (*staticgen.WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page.Path == "" {
		return nil, staticgen.Errorf(staticgen.EINVALID, "output path required")
	}

	w.mu.Lock()
	if w.claimed[page.Path] {
		w.mu.Unlock()
		return nil, staticgen.Errorf(staticgen.ECOLLISION, "output path already written this run: %s", page.Path)
	}
	w.claimed[page.Path] = true
	w.mu.Unlock()

	fingerprint := Fingerprint(page.Body)
	fullPath := filepath.Join(w.baseDir, filepath.FromSlash(page.Path))

	if entry, ok := w.manifest.Get(page.Path); ok && entry.Fingerprint == fingerprint && !entry.Deleted {
		// The manifest can only be trusted if the file is actually there;
		// an externally deleted file must be rewritten.
		if _, err := os.Stat(fullPath); err == nil {
			w.manifest.MarkTouched(page.Path)
			return &staticgen.WriteResult{
				Path:        page.Path,
				Fingerprint: fingerprint,
				Size:        int64(len(page.Body)),
				Unchanged:   true,
			}, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, classifyWriteError(page.Path, err)
	}
	// Temp file + rename keeps readers of the output tree from ever seeing
	// a half-written page, and guarantees the manifest is never ahead of
	// the content on disk.
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, page.Body, 0644); err != nil {
		return nil, classifyWriteError(page.Path, err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return nil, classifyWriteError(page.Path, err)
	}

	w.manifest.Upsert(staticgen.ManifestEntry{
		Path:        page.Path,
		Fingerprint: fingerprint,
		Size:        int64(len(page.Body)),
		WrittenAt:   time.Now().UTC(),
	})
	w.manifest.MarkTouched(page.Path)

	return &staticgen.WriteResult{
		Path:        page.Path,
		Fingerprint: fingerprint,
		Size:        int64(len(page.Body)),
	}, nil
}

// Remove deletes a previously written path from the output tree, cleaning up
// directories left empty. A path already absent is not an error.
func (w *Writer) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := filepath.Join(w.baseDir, filepath.FromSlash(path))
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return classifyWriteError(path, err)
	}
	// Remove now-empty parents up to the base directory.
	for dir := filepath.Dir(fullPath); dir != w.baseDir && len(dir) > len(w.baseDir); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// classifyWriteError separates target-scoped write failures from conditions
// that poison the whole base directory. Permission and disk-full errors will
// fail every subsequent write, so they escalate to fatal.
func classifyWriteError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EROFS) {
		return staticgen.Errorf(staticgen.EINTERNAL, "write %s: %v", path, err)
	}
	return staticgen.Errorf(staticgen.EWRITE, "write %s: %v", path, err)
}
