package main

import (
	"fmt"

	"github.com/fwojciec/staticgen"
	"github.com/fwojciec/staticgen/gen"
	staticgenslog "github.com/fwojciec/staticgen/slog"
)

// Run executes the targets command.
func (c *TargetsCmd) Run(deps *Dependencies) error {
	if c.Test != "" {
		target, err := deps.Config.Target(c.Test)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", staticgen.ErrorMessage(err))
			return err
		}
		backend, err := deps.Engines.Resolve(*target)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", staticgen.ErrorMessage(err))
			return err
		}
		logged := staticgenslog.NewLoggingPublisher(backend, target.Name, deps.Logger)
		if err := gen.SmokeTest(deps.Ctx, logged); err != nil {
			fmt.Fprintf(deps.Stderr, "%s: FAILED: %v\n", target.Name, err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "%s: OK\n", target.Name)
		return nil
	}

	if len(deps.Config.Targets) == 0 {
		fmt.Fprintln(deps.Stdout, "No publish targets configured.")
		return nil
	}
	for _, t := range deps.Config.Targets {
		dest := t.Bucket
		if t.Engine == "fs" {
			dest = t.Directory
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", t.Name, t.Engine, dest)
	}
	return nil
}
