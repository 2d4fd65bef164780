package mock

import (
	"context"

	"github.com/fwojciec/staticgen"
)

var _ staticgen.Writer = (*Writer)(nil)

// Writer is a mock implementation of staticgen.Writer.
type Writer struct {
	WriteFn  func(ctx context.Context, page *staticgen.RenderedPage) (*staticgen.WriteResult, error)
	RemoveFn func(ctx context.Context, path string) error
}

func (w *Writer) Write(ctx context.Context, page *staticgen.RenderedPage) (*staticgen.WriteResult, error) {
	return w.WriteFn(ctx, page)
}

func (w *Writer) Remove(ctx context.Context, path string) error {
	return w.RemoveFn(ctx, path)
}
