package mock

import (
	"context"

	"github.com/fwojciec/pagecap"
)

var _ pagecap.Surface = (*Surface)(nil)

// Surface is a mock implementation of pagecap.Surface.
type Surface struct {
	NavigateFn          func(ctx context.Context, url string) error
	ActivateFn          func(ctx context.Context) error
	ScreenshotFn        func(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error)
	PressKeyFn          func(ctx context.Context, key string) error
	SetOverlayVisibleFn func(ctx context.Context, visible bool) error
	BeginAreaSelectFn   func(ctx context.Context) error
	ExposeCommandsFn    func(ctx context.Context, fn func(pagecap.Command)) error
	InfoFn              func(ctx context.Context) (pagecap.SurfaceInfo, error)
	ClosedFn            func() <-chan struct{}
	CloseFn             func() error
}

func (s *Surface) Navigate(ctx context.Context, url string) error {
	return s.NavigateFn(ctx, url)
}

func (s *Surface) Activate(ctx context.Context) error {
	return s.ActivateFn(ctx)
}

func (s *Surface) Screenshot(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error) {
	return s.ScreenshotFn(ctx, opts)
}

func (s *Surface) PressKey(ctx context.Context, key string) error {
	return s.PressKeyFn(ctx, key)
}

func (s *Surface) SetOverlayVisible(ctx context.Context, visible bool) error {
	return s.SetOverlayVisibleFn(ctx, visible)
}

func (s *Surface) BeginAreaSelect(ctx context.Context) error {
	return s.BeginAreaSelectFn(ctx)
}

func (s *Surface) ExposeCommands(ctx context.Context, fn func(pagecap.Command)) error {
	return s.ExposeCommandsFn(ctx, fn)
}

func (s *Surface) Info(ctx context.Context) (pagecap.SurfaceInfo, error) {
	return s.InfoFn(ctx)
}

func (s *Surface) Closed() <-chan struct{} {
	return s.ClosedFn()
}

func (s *Surface) Close() error {
	return s.CloseFn()
}
