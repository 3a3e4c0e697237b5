package main_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/capture"
	main "github.com/fwojciec/pagecap/cmd/pagecap"
	"github.com/fwojciec/pagecap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("captures pages and saves the document", func(t *testing.T) {
		t.Parallel()

		surface := captureTestSurface()

		var assembled int
		assembler := &mock.Assembler{
			AssembleFn: func(_ context.Context, frames []pagecap.Frame, _ []pagecap.OCRResult, _ pagecap.AssembleOptions) (*pagecap.Artifact, error) {
				assembled = len(frames)
				return &pagecap.Artifact{Path: "/captures/out.pdf", Pages: len(frames), ByteSize: 4096}, nil
			},
		}

		session := launchTestSession(t, surface, assembler)

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Session: session,
		}

		cmd := &main.CaptureCmd{Pages: 2}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, 2, assembled)

		output := stdout.String()
		assert.Contains(t, output, "page 1 captured")
		assert.Contains(t, output, "page 2 captured")
		assert.Contains(t, output, "Saved /captures/out.pdf (2 pages")
		assert.Empty(t, stderr.String())
	})

	t.Run("returns invalid error for a malformed clip flag", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: stderr,
		}

		cmd := &main.CaptureCmd{Pages: 1, Clip: "10,20,300"}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
		assert.Contains(t, stderr.String(), "clip must be x,y,width,height")
	})

	t.Run("applies the clip flag to captured frames", func(t *testing.T) {
		t.Parallel()

		surface := captureTestSurface()

		var mu sync.Mutex
		var clip *pagecap.Clip
		inner := surface.ScreenshotFn
		surface.ScreenshotFn = func(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error) {
			if opts.Encoding.Format != pagecap.FormatJPEG {
				mu.Lock()
				clip = opts.Clip
				mu.Unlock()
			}
			return inner(ctx, opts)
		}

		session := launchTestSession(t, surface, discardingAssembler())

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Session: session,
		}

		cmd := &main.CaptureCmd{Pages: 1, Clip: "10, 20, 300, 400"}

		err := cmd.Run(deps)

		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		require.NotNil(t, clip)
		assert.Equal(t, pagecap.Clip{X: 10, Y: 20, Width: 300, Height: 400}, *clip)
	})

	t.Run("selects the capture area first when trim is requested", func(t *testing.T) {
		t.Parallel()

		surface := captureTestSurface()
		area := &pagecap.Clip{X: 10, Y: 20, Width: 300, Height: 400}

		// The overlay posts the selection back through the command binding.
		var session *capture.Session
		surface.BeginAreaSelectFn = func(ctx context.Context) error {
			session.HandleCommand(pagecap.Command{Action: pagecap.CommandTrim, Area: area})
			return nil
		}

		session = launchTestSession(t, surface, discardingAssembler())

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Session: session,
		}

		cmd := &main.CaptureCmd{Pages: 1, Trim: true}

		err := cmd.Run(deps)

		require.NoError(t, err)

		output := stdout.String()
		assert.Contains(t, output, "Drag across the page")
		assert.Contains(t, output, "capture area 300x400 at (10, 20)")
		assert.Contains(t, output, "Saved")
	})

	t.Run("returns an error when no page can be captured", func(t *testing.T) {
		t.Parallel()

		surface := captureTestSurface()
		surface.ScreenshotFn = func(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error) {
			if opts.Encoding.Format == pagecap.FormatJPEG {
				return []byte("probe"), nil
			}
			return nil, errors.New("target crashed")
		}

		session := launchTestSession(t, surface, discardingAssembler())

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Session: session,
		}

		cmd := &main.CaptureCmd{Pages: 3}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, pagecap.EINTERNAL, pagecap.ErrorCode(err))
		assert.Contains(t, err.Error(), "capture aborted")
		assert.Contains(t, stderr.String(), "target crashed")
		assert.NotContains(t, stdout.String(), "Saved")
	})
}

// captureTestSurface builds a mock surface whose stability probes settle
// immediately and whose full-quality captures produce distinct frames.
func captureTestSurface() *mock.Surface {
	closed := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	page := 0

	s := &mock.Surface{
		NavigateFn:          func(ctx context.Context, url string) error { return nil },
		ActivateFn:          func(ctx context.Context) error { return nil },
		PressKeyFn:          func(ctx context.Context, key string) error { return nil },
		SetOverlayVisibleFn: func(ctx context.Context, visible bool) error { return nil },
		BeginAreaSelectFn:   func(ctx context.Context) error { return nil },
		ExposeCommandsFn:    func(ctx context.Context, fn func(pagecap.Command)) error { return nil },
		InfoFn: func(ctx context.Context) (pagecap.SurfaceInfo, error) {
			return pagecap.SurfaceInfo{URL: "https://viewer.example.com/doc", Title: "Example Document"}, nil
		},
		ClosedFn: func() <-chan struct{} { return closed },
		CloseFn: func() error {
			once.Do(func() { close(closed) })
			return nil
		},
	}
	s.ScreenshotFn = func(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error) {
		if opts.Encoding.Format == pagecap.FormatJPEG {
			return []byte("probe"), nil
		}
		mu.Lock()
		defer mu.Unlock()
		page++
		return []byte(fmt.Sprintf("frame %d", page)), nil
	}
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func launchTestSession(t *testing.T, surface pagecap.Surface, assembler pagecap.Assembler) *capture.Session {
	t.Helper()

	cfg := pagecap.DefaultConfig()
	cfg.PageDelay = 0
	cfg.RetryAttempts = 2
	cfg.RetryDelay = 0

	session, err := capture.NewSession(capture.Options{
		Surface:          func(ctx context.Context) (pagecap.Surface, error) { return surface, nil },
		Assembler:        assembler,
		Logger:           discardLogger(),
		Config:           cfg,
		StabilityBase:    time.Millisecond,
		StabilityMax:     2 * time.Millisecond,
		StabilityTimeout: 250 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, session.Launch(context.Background()))
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func discardingAssembler() *mock.Assembler {
	return &mock.Assembler{
		AssembleFn: func(_ context.Context, frames []pagecap.Frame, _ []pagecap.OCRResult, _ pagecap.AssembleOptions) (*pagecap.Artifact, error) {
			return &pagecap.Artifact{Path: "/captures/out.pdf", Pages: len(frames), ByteSize: 1024}, nil
		},
	}
}
