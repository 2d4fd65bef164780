package mock

import (
	"context"

	"github.com/fwojciec/staticgen"
)

var _ staticgen.Publisher = (*Publisher)(nil)

// Publisher is a mock implementation of staticgen.Publisher.
type Publisher struct {
	UploadFn     func(ctx context.Context, path string, content []byte, contentType string) error
	DeleteFn     func(ctx context.Context, path string) error
	ListRemoteFn func(ctx context.Context) ([]string, error)
}

func (p *Publisher) Upload(ctx context.Context, path string, content []byte, contentType string) error {
	return p.UploadFn(ctx, path, content, contentType)
}

func (p *Publisher) Delete(ctx context.Context, path string) error {
	return p.DeleteFn(ctx, path)
}

func (p *Publisher) ListRemote(ctx context.Context) ([]string, error) {
	return p.ListRemoteFn(ctx)
}
