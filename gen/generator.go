package gen

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fwojciec/staticgen"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Generator orchestrates a generation run: expansion → render → write →
// prune, aggregating a run report. Fields are set once before Generate is
// called.
type Generator struct {
	Config   staticgen.Config
	Registry *staticgen.Registry
	Renderer staticgen.Renderer
	Writer   staticgen.Writer
	Manifest staticgen.ManifestStore

	// Routes scopes generation to the named routes. Empty means all.
	Routes []string
}

// ProgressEvent reports progress during a generation run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	Path      string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting generation progress.
type ProgressFunc func(event ProgressEvent)

// pageResult holds the outcome of processing a single page target.
type pageResult struct {
	position int
	target   *staticgen.PageTarget
	write    *staticgen.WriteResult
	skipped  bool
	err      error
}

// Plan expands every route in scope without rendering anything. Returns the
// page targets in deterministic order (route registration order × generator
// order × language declaration order), expansion warnings, and per-route
// failures.
func (g *Generator) Plan(ctx context.Context) ([]*staticgen.PageTarget, []string, []staticgen.Failure) {
	expander := &Expander{
		Languages:       g.Config.Languages,
		DefaultLanguage: g.Config.DefaultLanguage,
		Filter:          g.Config.Filter(),
	}

	var targets []*staticgen.PageTarget
	var warnings []string
	var failures []staticgen.Failure
	for _, route := range g.routesInScope() {
		routeTargets, routeWarnings, err := expander.Expand(ctx, route)
		if err != nil {
			failures = append(failures, staticgen.Failure{
				Path:    route.Name,
				Code:    staticgen.ErrorCode(err),
				Message: staticgen.ErrorMessage(err),
			})
			continue
		}
		warnings = append(warnings, routeWarnings...)
		targets = append(targets, routeTargets...)
	}
	return targets, warnings, failures
}

// Generate runs a full generation pass. Non-fatal errors are captured into
// the report and processing continues for unaffected targets; fatal errors
// abort the run with a non-nil error and an aborted report.
func (g *Generator) Generate(ctx context.Context, progress ProgressFunc) (*staticgen.Report, error) {
	report := &staticgen.Report{
		ID:        uuid.New().String(),
		Kind:      "generate",
		StartedAt: time.Now().UTC(),
	}

	if err := g.Config.Validate(); err != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, err
	}

	targets, warnings, failures := g.Plan(ctx)
	report.Warnings = warnings
	report.Failures = failures
	report.Expanded = len(targets)

	// Enforce the output-path uniqueness invariant before any work starts:
	// the first target claiming a path wins, later claimants are dropped.
	claimed := make(map[string]*staticgen.PageTarget, len(targets))
	deduped := targets[:0]
	for _, t := range targets {
		if prev, ok := claimed[t.Path]; ok {
			report.Record(staticgen.Failure{
				Path:    t.Path,
				Code:    staticgen.ECOLLISION,
				Message: fmt.Sprintf("routes %q and %q both map to %s", prev.Route.Name, t.Route.Name, t.Path),
			})
			continue
		}
		claimed[t.Path] = t
		deduped = append(deduped, t)
	}
	targets = deduped

	total := len(targets)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	resultCh := make(chan pageResult, total)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.Config.Concurrency)

	go func() {
		for i, target := range targets {
			i, target := i, target
			grp.Go(func() error {
				result := g.processTarget(gctx, i, target)
				resultCh <- result
				// A base-directory failure poisons every subsequent write;
				// cancel the group instead of failing target by target.
				if staticgen.ErrorCode(result.err) == staticgen.EINTERNAL {
					return result.err
				}
				return nil
			})
		}
		_ = grp.Wait()
		close(resultCh)
	}()

	completed := 0
	var fatal error
	for result := range resultCh {
		completed++
		switch {
		case result.err != nil:
			if staticgen.ErrorCode(result.err) == staticgen.EINTERNAL {
				fatal = result.err
			}
			report.Record(staticgen.Failure{
				Path:    result.target.Path,
				Code:    staticgen.ErrorCode(result.err),
				Message: staticgen.ErrorMessage(result.err),
			})
			if progress != nil {
				progress(ProgressEvent{Type: ProgressFailed, Completed: completed, Total: total, Path: result.target.Path, Error: result.err})
			}
		case result.skipped:
			report.Skipped++
		default:
			report.Rendered++
			if result.write.Unchanged {
				report.Unchanged++
			} else {
				report.Written++
			}
			if progress != nil {
				progress(ProgressEvent{Type: ProgressCompleted, Completed: completed, Total: total, Path: result.target.Path})
			}
		}
	}

	if fatal != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, fatal
	}
	if err := ctx.Err(); err != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, err
	}

	g.writeRedirects(ctx, report)

	if err := g.copyStatic(ctx, report); err != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, err
	}

	// A scoped run touches only a slice of the site; pruning against it
	// would delete everything out of scope.
	if g.Config.PruneStale && len(g.Routes) == 0 {
		g.prune(ctx, report)
	}

	if err := g.Manifest.Flush(); err != nil {
		report.Status = staticgen.RunAborted
		report.Finish()
		return report, staticgen.Errorf(staticgen.EINTERNAL, "flush manifest: %v", err)
	}

	report.Finish()
	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: completed, Total: total})
	}
	return report, nil
}

// processTarget renders and writes a single page target.
func (g *Generator) processTarget(ctx context.Context, position int, target *staticgen.PageTarget) pageResult {
	result := pageResult{position: position, target: target}

	res, err := g.render(ctx, target)
	if err != nil {
		result.err = err
		return result
	}
	if res == nil {
		result.skipped = true
		return result
	}

	result.write, result.err = g.Writer.Write(ctx, &staticgen.RenderedPage{
		Target:      target,
		Path:        target.Path,
		ContentType: res.ContentType,
		Body:        res.Body,
	})
	return result
}

// render dispatches one target through the render collaborator, applying the
// route's accepted status codes and the configured redirect policy. A nil
// result with nil error means the page was skipped by policy.
func (g *Generator) render(ctx context.Context, target *staticgen.PageTarget) (*staticgen.RenderResult, error) {
	res, err := g.Renderer.Render(ctx, target.URL, target.Route.RenderOptions)
	if err != nil {
		return nil, staticgen.Errorf(staticgen.ERENDER, "render %s: %v", target.URL, err)
	}
	if target.Route.AcceptsStatus(res.Status) {
		return res, nil
	}
	if res.Status >= 300 && res.Status < 400 {
		if g.Config.RedirectPolicy == staticgen.RedirectSkip {
			return nil, nil
		}
		if res.Location == "" {
			return nil, staticgen.Errorf(staticgen.ERENDER, "render %s: redirect without location", target.URL)
		}
		// Follow exactly one hop; a second redirect is an error so that
		// redirect loops cannot hang a run.
		followed, err := g.Renderer.Render(ctx, res.Location, target.Route.RenderOptions)
		if err != nil {
			return nil, staticgen.Errorf(staticgen.ERENDER, "render %s: follow %s: %v", target.URL, res.Location, err)
		}
		if !target.Route.AcceptsStatus(followed.Status) {
			return nil, staticgen.Errorf(staticgen.ERENDER, "render %s: unexpected status %d after redirect to %s", target.URL, followed.Status, res.Location)
		}
		return followed, nil
	}
	return nil, staticgen.Errorf(staticgen.ERENDER, "render %s: unexpected status %d", target.URL, res.Status)
}

// writeRedirects writes a static meta-refresh stub for every configured
// redirect. Failures are target-scoped.
func (g *Generator) writeRedirects(ctx context.Context, report *staticgen.Report) {
	for old, dest := range g.Config.Redirects {
		outPath := staticgen.RedirectOutputPath(old)
		result, err := g.Writer.Write(ctx, &staticgen.RenderedPage{
			Path:        outPath,
			ContentType: "text/html; charset=utf-8",
			Body:        staticgen.RedirectPage(dest),
		})
		if err != nil {
			report.Record(staticgen.Failure{
				Path:    outPath,
				Code:    staticgen.ErrorCode(err),
				Message: staticgen.ErrorMessage(err),
			})
			continue
		}
		if result.Unchanged {
			report.Unchanged++
		} else {
			report.Written++
		}
	}
}

// copyStatic mirrors the configured static asset tree into the output,
// tracked in the manifest like rendered pages so the assets publish and
// prune identically. Directory-wide read failures are fatal.
func (g *Generator) copyStatic(ctx context.Context, report *staticgen.Report) error {
	if g.Config.StaticDir == "" {
		return nil
	}
	filter := g.Config.Filter()
	prefix := path.Clean(g.Config.StaticPrefix)

	return filepath.WalkDir(g.Config.StaticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return staticgen.Errorf(staticgen.EINTERNAL, "walk static dir: %v", err)
		}
		if d.IsDir() {
			if filter.ExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(g.Config.StaticDir, p)
		if err != nil {
			return staticgen.Errorf(staticgen.EINTERNAL, "walk static dir: %v", err)
		}
		outPath := path.Join(prefix, filepath.ToSlash(rel))

		content, err := os.ReadFile(p)
		if err != nil {
			report.Record(staticgen.Failure{
				Path:    outPath,
				Code:    staticgen.EWRITE,
				Message: fmt.Sprintf("read static file %s: %v", p, err),
			})
			return nil
		}
		contentType := mime.TypeByExtension(filepath.Ext(p))

		result, werr := g.Writer.Write(ctx, &staticgen.RenderedPage{
			Path:        outPath,
			ContentType: contentType,
			Body:        content,
		})
		if werr != nil {
			if staticgen.ErrorCode(werr) == staticgen.EINTERNAL {
				return werr
			}
			report.Record(staticgen.Failure{
				Path:    outPath,
				Code:    staticgen.ErrorCode(werr),
				Message: staticgen.ErrorMessage(werr),
			})
			return nil
		}
		if result.Unchanged {
			report.Unchanged++
		} else {
			report.Written++
		}
		return nil
	})
}

// prune removes local files whose manifest entries were untouched by this
// run and flags them for remote deletion on the next publish.
func (g *Generator) prune(ctx context.Context, report *staticgen.Report) {
	for _, entry := range g.Manifest.Untouched() {
		if err := g.Writer.Remove(ctx, entry.Path); err != nil {
			report.Record(staticgen.Failure{
				Path:    entry.Path,
				Code:    staticgen.EWRITE,
				Message: fmt.Sprintf("prune %s: %v", entry.Path, err),
			})
			continue
		}
		g.Manifest.MarkDeleted(entry.Path)
		report.Pruned++
	}
}

func (g *Generator) routesInScope() []*staticgen.Route {
	all := g.Registry.Routes()
	if len(g.Routes) == 0 {
		return all
	}
	want := make(map[string]bool, len(g.Routes))
	for _, name := range g.Routes {
		want[name] = true
	}
	rtn := make([]*staticgen.Route, 0, len(g.Routes))
	for _, r := range all {
		if want[r.Name] {
			rtn = append(rtn, r)
		}
	}
	return rtn
}
