package staticgen

import "context"

// PageTarget is the atomic unit of generation: one route instance in one
// language, resolved to a concrete URL and output path.
type PageTarget struct {
	Route *Route
	Args  ArgSet
	Lang  string

	// URL is the concrete URL path produced by substituting Args into the
	// route's pattern.
	URL string

	// Path is the normalized relative output path for the page.
	Path string
}

// RenderResult is what the render collaborator returns for one URL.
type RenderResult struct {
	Status      int
	ContentType string

	// Location carries the redirect target for 3xx responses.
	Location string

	Body []byte
}

// RenderedPage is a rendered page together with its source target. Transient;
// exists only between dispatch and write.
type RenderedPage struct {
	Target      *PageTarget
	Path        string
	ContentType string
	Body        []byte
}

// Renderer produces the content for a concrete URL. Implementations wrap the
// host application's request dispatch; a render must have no side effects
// visible outside the simulated request. Renders for independent targets may
// run concurrently.
type Renderer interface {
	Render(ctx context.Context, url string, opts RenderOptions) (*RenderResult, error)
}

// WriteResult reports the outcome of persisting one rendered page.
type WriteResult struct {
	Path        string
	Fingerprint string
	Size        int64

	// Unchanged is true when the manifest already recorded the same
	// fingerprint for the path and the physical write was skipped.
	Unchanged bool
}

// Writer persists rendered pages to the local output tree and keeps the
// manifest in step with what is on disk. A write to the same path twice in
// one run is a collision: the first writer wins.
type Writer interface {
	Write(ctx context.Context, page *RenderedPage) (*WriteResult, error)

	// Remove deletes a previously written path from the output tree.
	Remove(ctx context.Context, path string) error
}
