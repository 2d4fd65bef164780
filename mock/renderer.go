// Package mock provides function-field mock implementations of staticgen
// service interfaces for use in tests.
package mock

import (
	"context"

	"github.com/fwojciec/staticgen"
)

var _ staticgen.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of staticgen.Renderer.
type Renderer struct {
	RenderFn func(ctx context.Context, url string, opts staticgen.RenderOptions) (*staticgen.RenderResult, error)
}

func (r *Renderer) Render(ctx context.Context, url string, opts staticgen.RenderOptions) (*staticgen.RenderResult, error) {
	return r.RenderFn(ctx, url, opts)
}
