package staticgen

import (
	"context"
	"sort"
	"strings"
)

// ArgSet maps URL placeholder names to concrete string values. One ArgSet
// produces one page instance per language.
type ArgSet map[string]string

// Key returns a canonical representation of the argument set, independent of
// map iteration order. Two argument sets with identical placeholder→value
// mappings always produce the same key.
func (a ArgSet) Key() string {
	if len(a) == 0 {
		return ""
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(a[k])
	}
	return b.String()
}

// ArgsFunc produces the argument sets for a dynamic route. The sequence must
// be finite; it is consumed eagerly and deduplicated before any rendering
// starts. A returned error discards everything the function yielded and
// fails the whole route.
type ArgsFunc func(ctx context.Context) ([]ArgSet, error)

// LiteralArgs returns an ArgsFunc that yields a fixed list of argument sets.
// Useful for routes whose instances are known statically, e.g. declared in a
// configuration file.
func LiteralArgs(sets ...ArgSet) ArgsFunc {
	return func(ctx context.Context) ([]ArgSet, error) {
		return sets, nil
	}
}

// RenderOptions is opaque pass-through configuration for the render
// collaborator. The engine never interprets it.
type RenderOptions map[string]string

// Route is an immutable descriptor of a templated URL and its generation
// metadata. Created once at registration time and never mutated.
type Route struct {
	// Unique route name, e.g. "blog-detail".
	Name string

	// Templated URL path with named placeholders, e.g. "/blog/{slug}/".
	URLPattern string

	// Languages the route is generated for, in declaration order. Empty
	// means the route is language-neutral and generated exactly once.
	Languages []string

	// Args produces the argument sets for the route. Nil means the route is
	// static: exactly one instance with an empty argument set.
	Args ArgsFunc

	// Filename overrides the mapped output path. It may contain the same
	// placeholders as URLPattern and is used verbatim after substitution.
	Filename string

	// StatusCodes lists the render status codes accepted as success.
	// Empty means 200 only.
	StatusCodes []int

	// Skip excludes the route from generation entirely.
	Skip bool

	// RenderOptions is passed unmodified to the render collaborator.
	RenderOptions RenderOptions
}

// Validate returns an error if the route descriptor is malformed.
func (r *Route) Validate() error {
	if r.Name == "" {
		return Errorf(EROUTE, "route name required")
	}
	if r.URLPattern == "" {
		return Errorf(EROUTE, "route %q: URL pattern required", r.Name)
	}
	if !strings.HasPrefix(r.URLPattern, "/") {
		return Errorf(EROUTE, "route %q: URL pattern must start with /", r.Name)
	}
	if _, err := r.Placeholders(); err != nil {
		return err
	}
	return nil
}

// Placeholders returns the placeholder names the URL pattern requires, in
// order of appearance.
func (r *Route) Placeholders() ([]string, error) {
	var names []string
	rest := r.URLPattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, Errorf(EROUTE, "route %q: unbalanced placeholder in %q", r.Name, r.URLPattern)
			}
			return names, nil
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			return nil, Errorf(EROUTE, "route %q: unbalanced placeholder in %q", r.Name, r.URLPattern)
		}
		name := rest[open+1 : open+close]
		if name == "" {
			return nil, Errorf(EROUTE, "route %q: empty placeholder in %q", r.Name, r.URLPattern)
		}
		names = append(names, name)
		rest = rest[open+close+1:]
	}
}

// ResolveURL substitutes the argument set into the URL pattern and returns
// the concrete URL path. Every placeholder must be supplied.
func (r *Route) ResolveURL(args ArgSet) (string, error) {
	return substitute(r.URLPattern, args, r.Name)
}

// ResolveFilename substitutes the argument set into the Filename override.
// Returns the empty string when the route has no override.
func (r *Route) ResolveFilename(args ArgSet) (string, error) {
	if r.Filename == "" {
		return "", nil
	}
	return substitute(r.Filename, args, r.Name)
}

// AcceptsStatus reports whether the route treats the given render status
// code as success.
func (r *Route) AcceptsStatus(status int) bool {
	if len(r.StatusCodes) == 0 {
		return status == 200
	}
	for _, code := range r.StatusCodes {
		if status == code {
			return true
		}
	}
	return false
}

func substitute(pattern string, args ArgSet, routeName string) (string, error) {
	var b strings.Builder
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			return "", Errorf(EROUTE, "route %q: unbalanced placeholder in %q", routeName, pattern)
		}
		name := rest[open+1 : open+close]
		value, ok := args[name]
		if !ok {
			return "", Errorf(EARGS, "route %q: argument set missing placeholder %q", routeName, name)
		}
		b.WriteString(rest[:open])
		b.WriteString(value)
		rest = rest[open+close+1:]
	}
}

// Registry holds the immutable route descriptors for a generation run. It is
// populated at startup and treated as a read-only snapshot afterwards; it is
// not safe for concurrent registration.
type Registry struct {
	routes []*Route
	byName map[string]*Route
}

// NewRegistry returns an empty route registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Route)}
}

// Register adds a route descriptor. Duplicate names are rejected.
func (reg *Registry) Register(r *Route) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, ok := reg.byName[r.Name]; ok {
		return Errorf(ECONFLICT, "route %q already registered", r.Name)
	}
	reg.routes = append(reg.routes, r)
	reg.byName[r.Name] = r
	return nil
}

// Routes returns all non-skipped routes in registration order.
func (reg *Registry) Routes() []*Route {
	rtn := make([]*Route, 0, len(reg.routes))
	for _, r := range reg.routes {
		if r.Skip {
			continue
		}
		rtn = append(rtn, r)
	}
	return rtn
}

// Lookup returns the route registered under name.
// Returns ENOTFOUND if no such route exists.
func (reg *Registry) Lookup(name string) (*Route, error) {
	r, ok := reg.byName[name]
	if !ok {
		return nil, Errorf(ENOTFOUND, "route %q not registered", name)
	}
	return r, nil
}
