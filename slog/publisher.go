package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/staticgen"
)

// Ensure LoggingPublisher implements staticgen.Publisher.
var _ staticgen.Publisher = (*LoggingPublisher)(nil)

// LoggingPublisher wraps a Publisher with per-operation logging.
type LoggingPublisher struct {
	next   staticgen.Publisher
	target string
	logger *slog.Logger
}

// NewLoggingPublisher creates a new LoggingPublisher for the named target.
func NewLoggingPublisher(next staticgen.Publisher, target string, logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{next: next, target: target, logger: logger}
}

// Upload delegates to the wrapped publisher and logs the operation.
func (p *LoggingPublisher) Upload(ctx context.Context, path string, content []byte, contentType string) (err error) {
	defer func(begin time.Time) {
		p.logger.Info("publish upload",
			"target", p.target,
			"path", path,
			"bytes", len(content),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Upload(ctx, path, content, contentType)
}

// Delete delegates to the wrapped publisher and logs the operation.
func (p *LoggingPublisher) Delete(ctx context.Context, path string) (err error) {
	defer func(begin time.Time) {
		p.logger.Info("publish delete",
			"target", p.target,
			"path", path,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Delete(ctx, path)
}

// ListRemote delegates to the wrapped publisher and logs the operation.
func (p *LoggingPublisher) ListRemote(ctx context.Context) (paths []string, err error) {
	defer func(begin time.Time) {
		p.logger.Info("publish list",
			"target", p.target,
			"count", len(paths),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.ListRemote(ctx)
}
