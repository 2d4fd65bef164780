package gen

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fwojciec/staticgen"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// defaultPublishConcurrency bounds the per-target worker pool when the
// target does not configure its own limit. Kept small to respect backend
// rate limits.
const defaultPublishConcurrency = 4

// Publisher pushes manifest diffs to one publish target under a bounded
// worker pool with retry. Fields are set once before Push is called.
type Publisher struct {
	Target   staticgen.PublishTarget
	Backend  staticgen.Publisher
	Manifest staticgen.ManifestStore

	// BaseDir is the local output tree uploads are read from.
	BaseDir string

	Retry   RetryPolicy
	Limiter *TargetLimiter
}

// publishOp is one scheduled remote operation.
type publishOp struct {
	path   string
	delete bool
}

// Diff computes the operations the target needs: uploads for every path
// whose manifest fingerprint is not confirmed pushed, deletes for every
// pruned path the target still holds. Paths matching the target's skip
// rules are excluded.
func (p *Publisher) Diff() (uploads, deletes []string) {
	for _, entry := range p.Manifest.Entries() {
		if p.Target.Skips(entry.Path) {
			continue
		}
		switch {
		case entry.Deleted:
			if entry.Pushed[p.Target.Name] != "" {
				deletes = append(deletes, entry.Path)
			}
		case entry.NeedsPush(p.Target.Name):
			uploads = append(uploads, entry.Path)
		}
	}
	return uploads, deletes
}

// Push executes the target's diff. A failed operation is recorded in the
// report and does not update the manifest's pushed record for that path, so
// the next run retries it; other operations are unaffected.
func (p *Publisher) Push(ctx context.Context, report *staticgen.Report, progress ProgressFunc) {
	uploads, deletes := p.Diff()

	ops := make([]publishOp, 0, len(uploads)+len(deletes))
	for _, path := range uploads {
		ops = append(ops, publishOp{path: path})
	}
	for _, path := range deletes {
		ops = append(ops, publishOp{path: path, delete: true})
	}

	total := len(ops)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}
	if total == 0 {
		return
	}

	concurrency := p.Target.Concurrency
	if concurrency <= 0 {
		concurrency = defaultPublishConcurrency
	}

	type opResult struct {
		op  publishOp
		err error
	}
	resultCh := make(chan opResult, total)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(concurrency)

	go func() {
		for _, op := range ops {
			op := op
			grp.Go(func() error {
				resultCh <- opResult{op: op, err: p.execute(gctx, op)}
				return nil
			})
		}
		_ = grp.Wait()
		close(resultCh)
	}()

	completed := 0
	for result := range resultCh {
		completed++
		if result.err != nil {
			report.Record(staticgen.Failure{
				Path:    result.op.path,
				Target:  p.Target.Name,
				Code:    staticgen.ErrorCode(result.err),
				Message: staticgen.ErrorMessage(result.err),
			})
			if progress != nil {
				progress(ProgressEvent{Type: ProgressFailed, Completed: completed, Total: total, Path: result.op.path, Error: result.err})
			}
			continue
		}
		if result.op.delete {
			report.Deleted++
		} else {
			report.Published++
		}
		if progress != nil {
			progress(ProgressEvent{Type: ProgressCompleted, Completed: completed, Total: total, Path: result.op.path})
		}
	}
	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: completed, Total: total})
	}
}

// execute runs one remote operation with rate limiting and retry, updating
// the manifest's pushed record only after the backend confirms.
func (p *Publisher) execute(ctx context.Context, op publishOp) error {
	if op.delete {
		err := Do(ctx, p.Retry, func(ctx context.Context) error {
			if err := p.Limiter.Wait(ctx, p.Target.Name); err != nil {
				return err
			}
			return p.Backend.Delete(ctx, op.path)
		})
		if err != nil {
			return err
		}
		p.Manifest.ClearPushed(op.path, p.Target.Name)
		return nil
	}

	entry, ok := p.Manifest.Get(op.path)
	if !ok {
		return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "no manifest entry for %s", op.path)
	}
	content, err := os.ReadFile(filepath.Join(p.BaseDir, filepath.FromSlash(op.path)))
	if err != nil {
		return staticgen.Errorf(staticgen.EPUBLISHPERMANENT, "read %s: %v", op.path, err)
	}

	err = Do(ctx, p.Retry, func(ctx context.Context) error {
		if err := p.Limiter.Wait(ctx, p.Target.Name); err != nil {
			return err
		}
		return p.Backend.Upload(ctx, op.path, content, p.contentType(op.path))
	})
	if err != nil {
		return err
	}
	p.Manifest.SetPushed(op.path, p.Target.Name, entry.Fingerprint)
	return nil
}

// contentType derives the upload content type from the path extension,
// falling back to the target's default.
func (p *Publisher) contentType(outPath string) string {
	if ct := mime.TypeByExtension(path.Ext(outPath)); ct != "" {
		return ct
	}
	if p.Target.DefaultContentType != "" {
		return p.Target.DefaultContentType
	}
	return "application/octet-stream"
}

// PublishRun drives a publish pass over one or more targets, producing the
// run report. Targets are pushed sequentially; operations within a target
// run under that target's worker pool.
type PublishRun struct {
	Config   staticgen.Config
	Engines  *staticgen.EngineRegistry
	Manifest staticgen.ManifestStore

	// Targets scopes the run to the named targets. Empty means all.
	Targets []string
}

// Publish resolves every target in scope and pushes its diff. Resolution
// failures are fatal (configuration errors); push failures are recorded and
// the run continues.
func (r *PublishRun) Publish(ctx context.Context, progress ProgressFunc) (*staticgen.Report, error) {
	report := &staticgen.Report{
		ID:        uuid.New().String(),
		Kind:      "publish",
		StartedAt: time.Now().UTC(),
	}

	if err := r.Config.Validate(); err != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, err
	}

	targets, err := r.targetsInScope()
	if err != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, err
	}

	// Resolve all backends before touching any of them, so a misconfigured
	// target aborts the run instead of failing halfway through.
	backends := make([]staticgen.Publisher, len(targets))
	for i, target := range targets {
		backend, err := r.Engines.Resolve(target)
		if err != nil {
			report.Status = staticgen.RunAborted
			report.Finish()
			return report, err
		}
		backends[i] = backend
	}

	retry := RetryPolicy{
		MaxAttempts: r.Config.MaxAttempts,
		BaseDelay:   r.Config.RetryBaseDelay,
		MaxDelay:    r.Config.RetryMaxDelay,
		Jitter:      true,
	}

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			report.Status = staticgen.RunAborted
			report.Finish()
			return report, err
		}
		publisher := &Publisher{
			Target:   target,
			Backend:  backends[i],
			Manifest: r.Manifest,
			BaseDir:  r.Config.OutputDir,
			Retry:    retry,
			Limiter:  NewTargetLimiter(target.RateLimit),
		}
		publisher.Push(ctx, report, progress)
	}

	if err := r.Manifest.Flush(); err != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, staticgen.Errorf(staticgen.EINTERNAL, "flush manifest: %v", err)
	}

	report.Finish()
	return report, nil
}

func (r *PublishRun) targetsInScope() ([]staticgen.PublishTarget, error) {
	if len(r.Targets) == 0 {
		return r.Config.Targets, nil
	}
	rtn := make([]staticgen.PublishTarget, 0, len(r.Targets))
	for _, name := range r.Targets {
		target, err := r.Config.Target(name)
		if err != nil {
			return nil, err
		}
		rtn = append(rtn, *target)
	}
	return rtn, nil
}

// SmokeTest uploads a random probe object to the target, verifies it is
// listed remotely, and deletes it again. Used to validate a target's
// configuration and credentials without publishing anything.
func SmokeTest(ctx context.Context, backend staticgen.Publisher) error {
	probe := fmt.Sprintf(".staticgen-probe-%s", uuid.New().String())
	if err := backend.Upload(ctx, probe, []byte(probe), "text/plain"); err != nil {
		return fmt.Errorf("probe upload: %w", err)
	}
	remote, err := backend.ListRemote(ctx)
	if err != nil {
		return fmt.Errorf("probe list: %w", err)
	}
	found := false
	for _, p := range remote {
		if p == probe {
			found = true
			break
		}
	}
	if err := backend.Delete(ctx, probe); err != nil {
		return fmt.Errorf("probe delete: %w", err)
	}
	if !found {
		return fmt.Errorf("probe object %s not listed after upload", probe)
	}
	return nil
}
