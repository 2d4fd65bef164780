package main

import (
	"fmt"

	"github.com/fwojciec/staticgen/gen"
)

// Run executes the routes command.
func (c *RoutesCmd) Run(deps *Dependencies) error {
	routes := deps.Registry.Routes()
	if len(routes) == 0 {
		fmt.Fprintln(deps.Stdout, "No routes configured.")
		return nil
	}

	if !c.Expand {
		for _, r := range routes {
			fmt.Fprintf(deps.Stdout, "%s  %s\n", r.Name, r.URLPattern)
		}
		return nil
	}

	generator := &gen.Generator{Config: deps.Config, Registry: deps.Registry}
	targets, warnings, failures := generator.Plan(deps.Ctx)
	for _, w := range warnings {
		fmt.Fprintf(deps.Stderr, "warning: %s\n", w)
	}
	for _, f := range failures {
		fmt.Fprintf(deps.Stderr, "error: %s: %s\n", f.Path, f.Message)
	}
	for _, t := range targets {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", t.Route.Name, t.URL, t.Path)
	}
	return nil
}
