package gen_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/staticgen"
	"github.com/fwojciec/staticgen/fs"
	"github.com/fwojciec/staticgen/gen"
	"github.com/fwojciec/staticgen/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a thread-safe in-memory publish backend recording calls.
type fakeBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads []string
	deletes []string

	uploadErr func(path string) error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: make(map[string][]byte)}
}

func (b *fakeBackend) publisher() *mock.Publisher {
	return &mock.Publisher{
		UploadFn: func(ctx context.Context, path string, content []byte, contentType string) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.uploads = append(b.uploads, path)
			if b.uploadErr != nil {
				if err := b.uploadErr(path); err != nil {
					return err
				}
			}
			b.objects[path] = content
			return nil
		},
		DeleteFn: func(ctx context.Context, path string) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.deletes = append(b.deletes, path)
			delete(b.objects, path)
			return nil
		},
		ListRemoteFn: func(ctx context.Context) ([]string, error) {
			b.mu.Lock()
			defer b.mu.Unlock()
			paths := make([]string, 0, len(b.objects))
			for p := range b.objects {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			return paths, nil
		},
	}
}

// writeOutput seeds the output tree and manifest with one written page.
func writeOutput(t *testing.T, dir string, manifest staticgen.ManifestStore, path, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	manifest.Upsert(staticgen.ManifestEntry{
		Path:        path,
		Fingerprint: fs.Fingerprint([]byte(content)),
		Size:        int64(len(content)),
		WrittenAt:   time.Now().UTC(),
	})
	manifest.MarkTouched(path)
}

func testRetry() gen.RetryPolicy {
	return gen.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestPublisher_Diff(t *testing.T) {
	t.Parallel()

	t.Run("uploads paths not yet confirmed pushed", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "index.html", "home")
		writeOutput(t, dir, manifest, "blog/index.html", "blog")
		manifest.SetPushed("index.html", "prod", fs.Fingerprint([]byte("home")))

		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Manifest: manifest,
		}
		uploads, deletes := p.Diff()
		assert.Equal(t, []string{"blog/index.html"}, uploads)
		assert.Empty(t, deletes)
	})

	t.Run("stale fingerprint is re-uploaded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "index.html", "v2")
		manifest.SetPushed("index.html", "prod", "fingerprint-of-v1")

		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Manifest: manifest,
		}
		uploads, _ := p.Diff()
		assert.Equal(t, []string{"index.html"}, uploads)
	})

	t.Run("deleted entries become deletes only where pushed", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "old/index.html", "old")
		manifest.SetPushed("old/index.html", "prod", fs.Fingerprint([]byte("old")))
		manifest.MarkDeleted("old/index.html")

		prod := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Manifest: manifest,
		}
		uploads, deletes := prod.Diff()
		assert.Empty(t, uploads)
		assert.Equal(t, []string{"old/index.html"}, deletes)

		staging := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "staging", Engine: "s3"},
			Manifest: manifest,
		}
		uploads, deletes = staging.Diff()
		assert.Empty(t, uploads, "deleted entries are never uploaded")
		assert.Empty(t, deletes, "target that never held the path has nothing to delete")
	})

	t.Run("skip paths are excluded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "index.html", "home")
		writeOutput(t, dir, manifest, "drafts/index.html", "draft")

		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3", SkipPaths: []string{"drafts"}},
			Manifest: manifest,
		}
		uploads, _ := p.Diff()
		assert.Equal(t, []string{"index.html"}, uploads)
	})
}

func TestPublisher_Push(t *testing.T) {
	t.Parallel()

	t.Run("pushes the diff and confirms in the manifest", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "index.html", "home")
		writeOutput(t, dir, manifest, "blog/index.html", "blog")

		backend := newFakeBackend()
		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Backend:  backend.publisher(),
			Manifest: manifest,
			BaseDir:  dir,
			Retry:    testRetry(),
		}

		report := &staticgen.Report{Kind: "publish"}
		p.Push(context.Background(), report, nil)
		report.Finish()

		assert.Equal(t, staticgen.RunClean, report.Status)
		assert.Equal(t, 2, report.Published)
		assert.Equal(t, []byte("home"), backend.objects["index.html"])

		entry, ok := manifest.Get("index.html")
		require.True(t, ok)
		assert.False(t, entry.NeedsPush("prod"))
	})

	t.Run("second push is a no-op", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "index.html", "home")

		backend := newFakeBackend()
		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Backend:  backend.publisher(),
			Manifest: manifest,
			BaseDir:  dir,
			Retry:    testRetry(),
		}

		report := &staticgen.Report{Kind: "publish"}
		p.Push(context.Background(), report, nil)
		require.Equal(t, 1, report.Published)

		again := &staticgen.Report{Kind: "publish"}
		p.Push(context.Background(), again, nil)
		assert.Zero(t, again.Published)
		assert.Len(t, backend.uploads, 1, "no remote calls for unchanged content")
	})

	t.Run("failed upload leaves no pushed record", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "index.html", "home")
		writeOutput(t, dir, manifest, "blog/index.html", "blog")

		backend := newFakeBackend()
		backend.uploadErr = func(path string) error {
			if path == "blog/index.html" {
				return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "access denied")
			}
			return nil
		}
		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Backend:  backend.publisher(),
			Manifest: manifest,
			BaseDir:  dir,
			Retry:    testRetry(),
		}

		report := &staticgen.Report{Kind: "publish"}
		p.Push(context.Background(), report, nil)
		report.Finish()

		assert.Equal(t, staticgen.RunPartial, report.Status)
		assert.Equal(t, 1, report.Published)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "blog/index.html", report.Failures[0].Path)
		assert.Equal(t, "prod", report.Failures[0].Target)

		entry, ok := manifest.Get("blog/index.html")
		require.True(t, ok)
		assert.True(t, entry.NeedsPush("prod"), "failed path retried next run")
	})

	t.Run("transient failures are retried until success", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "index.html", "home")

		calls := 0
		backend := newFakeBackend()
		backend.uploadErr = func(path string) error {
			calls++
			if calls < 3 {
				return staticgen.Errorf(staticgen.EPUBLISHTRANSIENT, "throttled")
			}
			return nil
		}
		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Backend:  backend.publisher(),
			Manifest: manifest,
			BaseDir:  dir,
			Retry:    testRetry(),
		}

		report := &staticgen.Report{Kind: "publish"}
		p.Push(context.Background(), report, nil)
		report.Finish()

		assert.Equal(t, staticgen.RunClean, report.Status)
		assert.Equal(t, 1, report.Published)
		assert.Equal(t, 3, calls)
	})

	t.Run("successful delete drops the manifest entry", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		manifest := fs.OpenManifest(dir)
		writeOutput(t, dir, manifest, "old/index.html", "old")
		manifest.SetPushed("old/index.html", "prod", fs.Fingerprint([]byte("old")))
		manifest.MarkDeleted("old/index.html")

		backend := newFakeBackend()
		p := &gen.Publisher{
			Target:   staticgen.PublishTarget{Name: "prod", Engine: "s3"},
			Backend:  backend.publisher(),
			Manifest: manifest,
			BaseDir:  dir,
			Retry:    testRetry(),
		}

		report := &staticgen.Report{Kind: "publish"}
		p.Push(context.Background(), report, nil)

		assert.Equal(t, 1, report.Deleted)
		assert.Equal(t, []string{"old/index.html"}, backend.deletes)
		_, ok := manifest.Get("old/index.html")
		assert.False(t, ok, "entry dropped once no target holds the path")
	})
}

func TestPublishRun_Publish(t *testing.T) {
	t.Parallel()

	newConfig := func(t *testing.T, targets ...staticgen.PublishTarget) staticgen.Config {
		t.Helper()
		cfg := staticgen.DefaultConfig()
		cfg.OutputDir = t.TempDir()
		cfg.RetryBaseDelay = time.Millisecond
		cfg.RetryMaxDelay = time.Millisecond
		cfg.Targets = targets
		return cfg
	}

	t.Run("publishes every configured target", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig(t,
			staticgen.PublishTarget{Name: "prod", Engine: "fake"},
			staticgen.PublishTarget{Name: "staging", Engine: "fake"},
		)
		manifest := fs.OpenManifest(cfg.OutputDir)
		writeOutput(t, cfg.OutputDir, manifest, "index.html", "home")

		backend := newFakeBackend()
		engines := staticgen.NewEngineRegistry()
		engines.Register("fake", func(target staticgen.PublishTarget) (staticgen.Publisher, error) {
			return backend.publisher(), nil
		})

		run := &gen.PublishRun{Config: cfg, Engines: engines, Manifest: manifest}
		report, err := run.Publish(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, staticgen.RunClean, report.Status)
		assert.Equal(t, 2, report.Published, "one upload per target")

		entry, ok := manifest.Get("index.html")
		require.True(t, ok)
		assert.False(t, entry.NeedsPush("prod"))
		assert.False(t, entry.NeedsPush("staging"))
	})

	t.Run("unknown engine aborts before any push", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig(t,
			staticgen.PublishTarget{Name: "prod", Engine: "fake"},
			staticgen.PublishTarget{Name: "bad", Engine: "carrier-pigeon"},
		)
		manifest := fs.OpenManifest(cfg.OutputDir)
		writeOutput(t, cfg.OutputDir, manifest, "index.html", "home")

		backend := newFakeBackend()
		engines := staticgen.NewEngineRegistry()
		engines.Register("fake", func(target staticgen.PublishTarget) (staticgen.Publisher, error) {
			return backend.publisher(), nil
		})

		run := &gen.PublishRun{Config: cfg, Engines: engines, Manifest: manifest}
		report, err := run.Publish(context.Background(), nil)
		require.Error(t, err)
		assert.Equal(t, staticgen.ECONFIG, staticgen.ErrorCode(err))
		assert.Equal(t, staticgen.RunAborted, report.Status)
		assert.Empty(t, backend.uploads, "nothing pushed when any target fails to resolve")
	})

	t.Run("target scoping limits the run", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig(t,
			staticgen.PublishTarget{Name: "prod", Engine: "fake"},
			staticgen.PublishTarget{Name: "staging", Engine: "fake"},
		)
		manifest := fs.OpenManifest(cfg.OutputDir)
		writeOutput(t, cfg.OutputDir, manifest, "index.html", "home")

		backend := newFakeBackend()
		engines := staticgen.NewEngineRegistry()
		engines.Register("fake", func(target staticgen.PublishTarget) (staticgen.Publisher, error) {
			return backend.publisher(), nil
		})

		run := &gen.PublishRun{Config: cfg, Engines: engines, Manifest: manifest, Targets: []string{"staging"}}
		report, err := run.Publish(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Published)

		entry, _ := manifest.Get("index.html")
		assert.True(t, entry.NeedsPush("prod"), "out-of-scope target untouched")
		assert.False(t, entry.NeedsPush("staging"))
	})
}

func TestSmokeTest(t *testing.T) {
	t.Parallel()

	t.Run("probe round-trips through the backend", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		require.NoError(t, gen.SmokeTest(context.Background(), backend.publisher()))
		assert.Len(t, backend.uploads, 1)
		assert.Len(t, backend.deletes, 1)
		assert.Empty(t, backend.objects, "probe object cleaned up")
	})

	t.Run("fails when the probe is not listed", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend()
		p := backend.publisher()
		p.ListRemoteFn = func(ctx context.Context) ([]string, error) {
			return nil, nil
		}
		require.Error(t, gen.SmokeTest(context.Background(), p))
	})
}
