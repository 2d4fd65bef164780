// Package slog provides logging decorators for staticgen services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/staticgen"
)

// Ensure LoggingRenderer implements staticgen.Renderer.
var _ staticgen.Renderer = (*LoggingRenderer)(nil)

// LoggingRenderer wraps a Renderer with debug logging.
type LoggingRenderer struct {
	next   staticgen.Renderer
	logger *slog.Logger
}

// NewLoggingRenderer creates a new LoggingRenderer.
func NewLoggingRenderer(next staticgen.Renderer, logger *slog.Logger) *LoggingRenderer {
	return &LoggingRenderer{next: next, logger: logger}
}

// Render delegates to the wrapped renderer and logs the operation.
func (r *LoggingRenderer) Render(ctx context.Context, url string, opts staticgen.RenderOptions) (res *staticgen.RenderResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		}
		if res != nil {
			attrs = append(attrs, "status", res.Status, "bytes", len(res.Body))
		}
		r.logger.Info("render", attrs...)
	}(time.Now())
	return r.next.Render(ctx, url, opts)
}
