// Package gen provides generation and publishing orchestration. It expands
// route descriptors into page targets, drives the render and write worker
// pools, computes manifest diffs, and pushes them to publish targets.
package gen

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/staticgen"
)

// Expander turns one route descriptor into zero or more page targets.
type Expander struct {
	// Languages applies to routes that declare none of their own.
	Languages []string

	// DefaultLanguage is generated without a path prefix.
	DefaultLanguage string

	// Filter excludes URL paths before targets are created.
	Filter *staticgen.PathFilter
}

// Expand produces the full, deduplicated list of page targets for a route,
// in generator order × language declaration order. Duplicate argument sets
// produce warnings, not errors. A failing generator or an argument set
// missing a required placeholder fails the whole route with EARGS: a broken
// generator cannot be trusted for any of its outputs.
func (e *Expander) Expand(ctx context.Context, route *staticgen.Route) ([]*staticgen.PageTarget, []string, error) {
	argSets, warnings, err := e.argSets(ctx, route)
	if err != nil {
		return nil, nil, err
	}

	langs := route.Languages
	if len(langs) == 0 {
		langs = e.Languages
	}
	if len(langs) == 0 {
		langs = []string{""}
	}

	var targets []*staticgen.PageTarget
	for _, args := range argSets {
		url, err := route.ResolveURL(args)
		if err != nil {
			return nil, nil, staticgen.Errorf(staticgen.EARGS, "route %q: %s", route.Name, staticgen.ErrorMessage(err))
		}
		if e.Filter.Excluded(url) {
			continue
		}
		filename, err := route.ResolveFilename(args)
		if err != nil {
			return nil, nil, staticgen.Errorf(staticgen.EARGS, "route %q: %s", route.Name, staticgen.ErrorMessage(err))
		}
		for _, lang := range langs {
			path := filename
			if path == "" {
				path, err = staticgen.OutputPath(url, lang, e.DefaultLanguage)
				if err != nil {
					return nil, nil, staticgen.Errorf(staticgen.EARGS, "route %q: %s", route.Name, staticgen.ErrorMessage(err))
				}
			}
			targets = append(targets, &staticgen.PageTarget{
				Route: route,
				Args:  args,
				Lang:  lang,
				URL:   url,
				Path:  path,
			})
		}
	}
	return targets, warnings, nil
}

// argSets consumes the route's generator eagerly and deduplicates the
// result, preserving first-occurrence order.
func (e *Expander) argSets(ctx context.Context, route *staticgen.Route) ([]staticgen.ArgSet, []string, error) {
	if route.Args == nil {
		return []staticgen.ArgSet{{}}, nil, nil
	}

	sets, err := route.Args(ctx)
	if err != nil {
		return nil, nil, staticgen.Errorf(staticgen.EARGS, "route %q: argument generator failed: %v", route.Name, err)
	}

	seen := make(map[uint64]bool, len(sets))
	deduped := make([]staticgen.ArgSet, 0, len(sets))
	var warnings []string
	for _, args := range sets {
		key := xxhash.Sum64String(args.Key())
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("route %q: duplicate argument set {%s}", route.Name, args.Key()))
			continue
		}
		seen[key] = true
		deduped = append(deduped, args)
	}
	return deduped, warnings, nil
}
