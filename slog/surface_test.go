package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/mock"
	pcslog "github.com/fwojciec/pagecap/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSurface_Navigate(t *testing.T) {
	t.Parallel()

	t.Run("logs navigation with duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Surface{
			NavigateFn: func(ctx context.Context, url string) error {
				return nil
			},
		}

		surface := pcslog.NewLoggingSurface(inner, logger)
		err := surface.Navigate(context.Background(), "https://reader.example/book")

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "navigate")
		assert.Contains(t, output, "url=https://reader.example/book")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Surface{
			NavigateFn: func(ctx context.Context, url string) error {
				return errors.New("net::ERR_CONNECTION_REFUSED")
			},
		}

		surface := pcslog.NewLoggingSurface(inner, logger)
		err := surface.Navigate(context.Background(), "https://reader.example/book")

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=net::ERR_CONNECTION_REFUSED")
	})
}

func TestLoggingSurface_Screenshot(t *testing.T) {
	t.Parallel()

	t.Run("logs capture size at debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Surface{
			ScreenshotFn: func(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error) {
				return []byte("imagedata"), nil
			},
		}

		surface := pcslog.NewLoggingSurface(inner, logger)
		data, err := surface.Screenshot(context.Background(), pagecap.ScreenshotOptions{
			Encoding: pagecap.ImageEncoding{Format: pagecap.FormatPNG},
		})

		require.NoError(t, err)
		assert.Equal(t, []byte("imagedata"), data)
		output := buf.String()
		assert.Contains(t, output, "screenshot")
		assert.Contains(t, output, "format=png")
		assert.Contains(t, output, "bytes=9")
	})

	t.Run("stays quiet below debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Surface{
			ScreenshotFn: func(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error) {
				return []byte("imagedata"), nil
			},
		}

		surface := pcslog.NewLoggingSurface(inner, logger)
		_, err := surface.Screenshot(context.Background(), pagecap.ScreenshotOptions{})

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestLoggingSurface_Delegation(t *testing.T) {
	t.Parallel()

	closed := make(chan struct{})
	inner := &mock.Surface{
		ActivateFn: func(ctx context.Context) error { return nil },
		InfoFn: func(ctx context.Context) (pagecap.SurfaceInfo, error) {
			return pagecap.SurfaceInfo{Title: "A Title"}, nil
		},
		ClosedFn: func() <-chan struct{} { return closed },
		CloseFn:  func() error { return nil },
	}

	var buf bytes.Buffer
	surface := pcslog.NewLoggingSurface(inner, slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, surface.Activate(context.Background()))
	info, err := surface.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A Title", info.Title)
	assert.Equal(t, (<-chan struct{})(closed), surface.Closed())
	require.NoError(t, surface.Close())
}
