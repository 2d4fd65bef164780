package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/staticgen"
	"github.com/fwojciec/staticgen/fs"
	"github.com/fwojciec/staticgen/gen"
	staticgenhttp "github.com/fwojciec/staticgen/http"
	staticgenslog "github.com/fwojciec/staticgen/slog"
)

const msRounding = time.Millisecond

// Run executes the generate command.
func (c *GenerateCmd) Run(deps *Dependencies) error {
	baseURL := deps.BaseURL
	if c.BaseURL != "" {
		baseURL = c.BaseURL
	}

	manifest := fs.OpenManifest(deps.Config.OutputDir)
	generator := &gen.Generator{
		Config:   deps.Config,
		Registry: deps.Registry,
		Writer:   fs.NewWriter(deps.Config.OutputDir, manifest),
		Manifest: manifest,
		Routes:   c.Route,
	}

	// Dry run stops at expansion: no renderer needed, nothing written.
	if c.DryRun {
		targets, warnings, failures := generator.Plan(deps.Ctx)
		for _, w := range warnings {
			fmt.Fprintf(deps.Stderr, "warning: %s\n", w)
		}
		for _, f := range failures {
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", f.Path, f.Message)
		}
		for _, t := range targets {
			fmt.Fprintf(deps.Stdout, "%s  %s\n", t.URL, t.Path)
		}
		fmt.Fprintf(deps.Stdout, "%d pages\n", len(targets))
		return nil
	}

	if baseURL == "" {
		err := staticgen.Errorf(staticgen.ECONFIG, "render base URL required")
		fmt.Fprintf(deps.Stderr, "error: %s\n", staticgen.ErrorMessage(err))
		fmt.Fprintln(deps.Stderr, "Hint: Set baseURL in the config file or pass --base-url")
		return err
	}
	generator.Renderer = staticgenslog.NewLoggingRenderer(
		staticgenhttp.NewRenderer(baseURL), deps.Logger)

	progress := func(event gen.ProgressEvent) {
		switch event.Type {
		case gen.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Generating %d pages\n", event.Total)
		case gen.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  fail %s: %v\n", event.Path, event.Error)
		}
	}

	report, err := generator.Generate(deps.Ctx, progress)
	if report != nil {
		printReport(deps, report)
		recordRun(deps, report)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", staticgen.ErrorMessage(err))
		return err
	}
	if !report.Ok() {
		return staticgen.Errorf(staticgen.EINTERNAL, "generation finished with %d failures", len(report.Failures))
	}
	return nil
}

func printReport(deps *Dependencies, r *staticgen.Report) {
	for _, w := range r.Warnings {
		fmt.Fprintf(deps.Stderr, "warning: %s\n", w)
	}
	switch r.Kind {
	case "generate":
		fmt.Fprintf(deps.Stdout, "%s: %d rendered, %d written, %d unchanged, %d skipped, %d pruned, %d failed (%s)\n",
			r.Status, r.Rendered, r.Written, r.Unchanged, r.Skipped, r.Pruned, len(r.Failures),
			r.FinishedAt.Sub(r.StartedAt).Round(msRounding))
	case "publish":
		fmt.Fprintf(deps.Stdout, "%s: %d published, %d deleted, %d failed (%s)\n",
			r.Status, r.Published, r.Deleted, len(r.Failures),
			r.FinishedAt.Sub(r.StartedAt).Round(msRounding))
	}
}

// recordRun stores the report in run history when the history database is
// available. Failures are reported but never fail the command.
func recordRun(deps *Dependencies, r *staticgen.Report) {
	if deps.Runs == nil {
		return
	}
	if err := deps.Runs.CreateRun(deps.Ctx, r); err != nil {
		fmt.Fprintf(deps.Stderr, "warning: failed to record run: %s\n", staticgen.ErrorMessage(err))
	}
}
