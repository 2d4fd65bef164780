package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/staticgen"
)

// Ensure Publisher implements staticgen.Publisher at compile time.
var _ staticgen.Publisher = (*Publisher)(nil)

// Publisher mirrors generated output into another directory tree, e.g. a
// mounted volume a web server serves from. Registered under the "fs" engine
// name.
type Publisher struct {
	dir string
}

// NewPublisher creates a directory publisher from the target configuration.
func NewPublisher(target staticgen.PublishTarget) (*Publisher, error) {
	if target.Directory == "" {
		return nil, staticgen.Errorf(staticgen.ECONFIG, "publish target %q: directory required for fs engine", target.Name)
	}
	return &Publisher{dir: target.Directory}, nil
}

// Upload writes content at path inside the destination tree. Local I/O
// failures are permanent; retrying in-process will not fix a bad disk.
func (p *Publisher) Upload(ctx context.Context, path string, content []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := filepath.Join(p.dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "upload %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "upload %s: %v", path, err)
	}
	return nil
}

// Delete removes path from the destination tree.
func (p *Publisher) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := filepath.Join(p.dir, filepath.FromSlash(path))
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "delete %s: %v", path, err)
	}
	for dir := filepath.Dir(fullPath); dir != p.dir && len(dir) > len(p.dir); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// ListRemote walks the destination tree and returns every file path,
// slash-separated and relative to the tree root.
func (p *Publisher) ListRemote(ctx context.Context) ([]string, error) {
	var rtn []string
	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		rtn = append(rtn, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "list remote: %v", err)
	}
	return rtn, nil
}
