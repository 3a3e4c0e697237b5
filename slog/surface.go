// Package slog provides logging decorators for the service interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagecap"
)

// Ensure LoggingSurface implements pagecap.Surface.
var _ pagecap.Surface = (*LoggingSurface)(nil)

// LoggingSurface wraps a Surface with logging for the operations worth
// tracing. Navigation logs at info; screenshots and key presses fire on
// every page of a run and log at debug.
type LoggingSurface struct {
	next   pagecap.Surface
	logger *slog.Logger
}

// NewLoggingSurface creates a new LoggingSurface.
func NewLoggingSurface(next pagecap.Surface, logger *slog.Logger) *LoggingSurface {
	return &LoggingSurface{next: next, logger: logger}
}

// Navigate logs the navigation and delegates to the wrapped surface.
func (s *LoggingSurface) Navigate(ctx context.Context, url string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("navigate",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Navigate(ctx, url)
}

// Screenshot logs the capture size and delegates to the wrapped surface.
func (s *LoggingSurface) Screenshot(ctx context.Context, opts pagecap.ScreenshotOptions) (data []byte, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("screenshot",
			"format", opts.Encoding.Format,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Screenshot(ctx, opts)
}

// PressKey logs the key press and delegates to the wrapped surface.
func (s *LoggingSurface) PressKey(ctx context.Context, key string) (err error) {
	defer func() {
		s.logger.Debug("press key", "key", key, "err", err)
	}()
	return s.next.PressKey(ctx, key)
}

// Activate delegates to the wrapped surface.
func (s *LoggingSurface) Activate(ctx context.Context) error {
	return s.next.Activate(ctx)
}

// SetOverlayVisible delegates to the wrapped surface.
func (s *LoggingSurface) SetOverlayVisible(ctx context.Context, visible bool) error {
	return s.next.SetOverlayVisible(ctx, visible)
}

// BeginAreaSelect delegates to the wrapped surface.
func (s *LoggingSurface) BeginAreaSelect(ctx context.Context) error {
	return s.next.BeginAreaSelect(ctx)
}

// ExposeCommands delegates to the wrapped surface.
func (s *LoggingSurface) ExposeCommands(ctx context.Context, fn func(pagecap.Command)) error {
	return s.next.ExposeCommands(ctx, fn)
}

// Info delegates to the wrapped surface.
func (s *LoggingSurface) Info(ctx context.Context) (pagecap.SurfaceInfo, error) {
	return s.next.Info(ctx)
}

// Closed delegates to the wrapped surface.
func (s *LoggingSurface) Closed() <-chan struct{} {
	return s.next.Closed()
}

// Close delegates to the wrapped surface.
func (s *LoggingSurface) Close() error {
	return s.next.Close()
}
