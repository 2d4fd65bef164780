package mock

import (
	"context"

	"github.com/fwojciec/staticgen"
)

var _ staticgen.RunService = (*RunService)(nil)

// RunService is a mock implementation of staticgen.RunService.
type RunService struct {
	CreateRunFn func(ctx context.Context, report *staticgen.Report) error
	FindRunsFn  func(ctx context.Context, filter staticgen.RunFilter) ([]*staticgen.Report, error)
}

func (s *RunService) CreateRun(ctx context.Context, report *staticgen.Report) error {
	return s.CreateRunFn(ctx, report)
}

func (s *RunService) FindRuns(ctx context.Context, filter staticgen.RunFilter) ([]*staticgen.Report, error) {
	return s.FindRunsFn(ctx, filter)
}
