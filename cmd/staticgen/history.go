package main

import (
	"fmt"

	"github.com/fwojciec/staticgen"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if deps.Runs == nil {
		return staticgen.Errorf(staticgen.EUNAVAILABLE, "run history database unavailable")
	}

	filter := staticgen.RunFilter{Limit: c.Limit}
	if c.Kind != "" {
		filter.Kind = &c.Kind
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", staticgen.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %-8s  %-7s  %s  written=%d published=%d pruned=%d failures=%d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Kind, r.Status, r.ID,
			r.Written, r.Published, r.Pruned, len(r.Failures))
	}
	return nil
}
