package pagecap

import "context"

// ScreenshotOptions control a single capture of the surface.
type ScreenshotOptions struct {
	// Clip restricts the capture to a sub-area. Nil captures the viewport.
	Clip *Clip

	// Encoding selects the image format and quality.
	Encoding ImageEncoding

	// FullPage captures the whole scrollable page rather than the
	// viewport. Used by batch captures.
	FullPage bool
}

// SurfaceInfo describes the remote page currently shown on the surface.
type SurfaceInfo struct {
	URL   string
	Title string
}

// Surface is a remote, script-controllable view of rendered content. It
// exposes the navigate/screenshot/key-press/callback primitives of a
// browser automation driver.
//
// A surface is a single shared mutable resource: the capture session owns
// it for the lifetime of one attachment and other activities borrow it
// through the session's lease.
type Surface interface {
	// Navigate loads url and waits for the load event to fire.
	Navigate(ctx context.Context, url string) error

	// Activate brings the surface to the foreground.
	Activate(ctx context.Context) error

	// Screenshot captures the surface and returns the encoded image.
	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)

	// PressKey sends a key press identified by its DOM key name,
	// e.g. "ArrowRight" or "PageDown".
	PressKey(ctx context.Context, key string) error

	// SetOverlayVisible shows or hides the injected control overlay so it
	// never appears in captured frames.
	SetOverlayVisible(ctx context.Context, visible bool) error

	// BeginAreaSelect starts interactive area selection on the remote
	// page. The selected rectangle arrives as a CommandTrim command
	// through the binding registered with ExposeCommands.
	BeginAreaSelect(ctx context.Context) error

	// ExposeCommands registers fn as the single inbound command binding
	// the remote page's embedded controller posts to.
	ExposeCommands(ctx context.Context, fn func(Command)) error

	// Info returns the current page URL and title.
	Info(ctx context.Context) (SurfaceInfo, error)

	// Closed returns a channel that is closed when the underlying
	// connection goes away, expectedly or not.
	Closed() <-chan struct{}

	// Close detaches from the remote content and releases driver
	// resources. Close is safe to call multiple times.
	Close() error
}
