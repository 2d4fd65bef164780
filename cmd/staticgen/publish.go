package main

import (
	"fmt"

	"github.com/fwojciec/staticgen"
	"github.com/fwojciec/staticgen/fs"
	"github.com/fwojciec/staticgen/gen"
)

// Run executes the publish command.
func (c *PublishCmd) Run(deps *Dependencies) error {
	manifest := fs.OpenManifest(deps.Config.OutputDir)

	// Dry run computes each target's diff without resolving backends, so it
	// works with no credentials configured.
	if c.DryRun {
		targets := c.Target
		if len(targets) == 0 {
			for _, t := range deps.Config.Targets {
				targets = append(targets, t.Name)
			}
		}
		for _, name := range targets {
			target, err := deps.Config.Target(name)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", staticgen.ErrorMessage(err))
				return err
			}
			publisher := &gen.Publisher{Target: *target, Manifest: manifest}
			uploads, deletes := publisher.Diff()
			fmt.Fprintf(deps.Stdout, "%s: %d uploads, %d deletes\n", name, len(uploads), len(deletes))
			for _, p := range uploads {
				fmt.Fprintf(deps.Stdout, "  push %s\n", p)
			}
			for _, p := range deletes {
				fmt.Fprintf(deps.Stdout, "  drop %s\n", p)
			}
		}
		return nil
	}

	run := &gen.PublishRun{
		Config:   deps.Config,
		Engines:  deps.Engines,
		Manifest: manifest,
		Targets:  c.Target,
	}

	progress := func(event gen.ProgressEvent) {
		switch event.Type {
		case gen.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Publishing %d operations\n", event.Total)
		case gen.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  fail %s: %v\n", event.Path, event.Error)
		}
	}

	report, err := run.Publish(deps.Ctx, progress)
	if report != nil {
		printReport(deps, report)
		recordRun(deps, report)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", staticgen.ErrorMessage(err))
		return err
	}
	if !report.Ok() {
		return staticgen.Errorf(staticgen.EINTERNAL, "publish finished with %d failures", len(report.Failures))
	}
	return nil
}
