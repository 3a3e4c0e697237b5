package mock

import (
	"context"

	"github.com/fwojciec/pagecap"
)

var _ pagecap.RunService = (*RunService)(nil)

// RunService is a mock implementation of pagecap.RunService.
type RunService struct {
	CreateRunFn func(ctx context.Context, run *pagecap.Run) error
	FindRunsFn  func(ctx context.Context, filter pagecap.RunFilter) ([]*pagecap.Run, int, error)
	DeleteRunFn func(ctx context.Context, id string) error
}

func (s *RunService) CreateRun(ctx context.Context, run *pagecap.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FindRuns(ctx context.Context, filter pagecap.RunFilter) ([]*pagecap.Run, int, error) {
	return s.FindRunsFn(ctx, filter)
}

func (s *RunService) DeleteRun(ctx context.Context, id string) error {
	return s.DeleteRunFn(ctx, id)
}
