package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fwojciec/pagecap"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// Ensure Surface implements pagecap.Surface at compile time.
var _ pagecap.Surface = (*Surface)(nil)

// Connection retry defaults for NewSurface.
const (
	DefaultConnectAttempts = 3
	DefaultConnectDelay    = 2 * time.Second
)

// Surface drives a Chrome page over the DevTools protocol. It implements
// pagecap.Surface on go-rod: one launched browser, one page, one injected
// control overlay.
//
// Surface methods are safe for concurrent use; callers serialize capture
// access through the session's lease, not here.
type Surface struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page

	headless        bool
	connectAttempts int
	connectDelay    time.Duration

	closed    chan struct{}
	closeOnce sync.Once // guards the closed channel
	shutOnce  sync.Once // guards resource teardown
}

// SurfaceOption configures a Surface before launch.
type SurfaceOption func(*Surface)

// WithHeadless controls whether the browser runs headless. Defaults to
// true; interactive captures run headed so the user can sign in and turn
// pages manually.
func WithHeadless(headless bool) SurfaceOption {
	return func(s *Surface) {
		s.headless = headless
	}
}

// WithConnectAttempts sets how many times the browser launch is attempted
// before giving up. Defaults to 3.
func WithConnectAttempts(n int) SurfaceOption {
	return func(s *Surface) {
		s.connectAttempts = n
	}
}

// WithConnectDelay sets the fixed wait between launch attempts.
// Defaults to 2s.
func WithConnectDelay(d time.Duration) SurfaceOption {
	return func(s *Surface) {
		s.connectDelay = d
	}
}

// NewSurface launches a browser, opens url and waits for it to load.
// Launch and connect failures are retried with a fixed delay before the
// last error is returned. Close must be called when the Surface is no
// longer needed.
func NewSurface(ctx context.Context, url string, opts ...SurfaceOption) (*Surface, error) {
	s := &Surface{
		headless:        true,
		connectAttempts: DefaultConnectAttempts,
		connectDelay:    DefaultConnectDelay,
		closed:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	err := retry.Do(
		s.launch,
		retry.Context(ctx),
		retry.Attempts(uint(s.connectAttempts)),
		retry.Delay(s.connectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	if err := s.openPage(ctx, url); err != nil {
		_ = s.Close()
		return nil, err
	}

	go s.watch()

	return s, nil
}

// launch starts a browser instance with stability flags and connects to it.
func (s *Surface) launch() error {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(s.headless)

	u, err := lnchr.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	s.browser = browser
	s.launcher = lnchr
	return nil
}

// openPage creates the single page this surface drives and performs the
// initial navigation. The stored page is not bound to ctx; methods bind
// their own contexts per call.
func (s *Surface) openPage(ctx context.Context, url string) error {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return err
	}

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}

	s.page = page
	return nil
}

// watch closes the Closed channel once the devtools connection drops,
// whether by a crash, a user closing the window, or a deliberate Close.
func (s *Surface) watch() {
	for range s.browser.Event() {
	}
	s.markClosed()
}

func (s *Surface) markClosed() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// live returns an error once the surface has been closed or disconnected.
func (s *Surface) live() error {
	select {
	case <-s.closed:
		return pagecap.Errorf(pagecap.EUNAVAILABLE, "automation surface is closed")
	default:
		return nil
	}
}

// Navigate loads url and waits for the load event to fire.
func (s *Surface) Navigate(ctx context.Context, url string) error {
	if err := s.live(); err != nil {
		return err
	}
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

// Activate brings the page to the foreground.
func (s *Surface) Activate(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	_, err := s.page.Context(ctx).Activate()
	return err
}

// Screenshot captures the page and returns the encoded image.
func (s *Surface) Screenshot(ctx context.Context, opts pagecap.ScreenshotOptions) ([]byte, error) {
	if err := s.live(); err != nil {
		return nil, err
	}

	req := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	}
	if opts.Encoding.Format == pagecap.FormatJPEG {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = gson.Int(opts.Encoding.Quality)
	}
	if opts.Clip != nil {
		req.Clip = &proto.PageViewport{
			X:      opts.Clip.X,
			Y:      opts.Clip.Y,
			Width:  opts.Clip.Width,
			Height: opts.Clip.Height,
			Scale:  1,
		}
	}

	return s.page.Context(ctx).Screenshot(opts.FullPage, req)
}

// PressKey sends a key tap identified by its DOM key name.
func (s *Surface) PressKey(ctx context.Context, key string) error {
	if err := s.live(); err != nil {
		return err
	}
	k, err := keyByName(key)
	if err != nil {
		return err
	}
	return s.page.Context(ctx).Keyboard.Type(k)
}

// SetOverlayVisible shows or hides the injected control overlay so it
// never appears in captured frames.
func (s *Surface) SetOverlayVisible(ctx context.Context, visible bool) error {
	if err := s.live(); err != nil {
		return err
	}
	_, err := s.page.Context(ctx).Eval(toggleOverlayJS, visible)
	return err
}

// BeginAreaSelect starts drag selection on the page. The selected
// rectangle arrives as a trim command through the exposed binding.
func (s *Surface) BeginAreaSelect(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	_, err := s.page.Context(ctx).Eval(areaSelectJS)
	return err
}

// ExposeCommands registers fn as the receiver for control commands posted
// by the page and installs the on-page control overlay. The binding and
// the overlay survive navigations.
func (s *Surface) ExposeCommands(ctx context.Context, fn func(pagecap.Command)) error {
	if err := s.live(); err != nil {
		return err
	}

	p := s.page.Context(ctx)
	_, err := p.Expose(commandBinding, func(g gson.JSON) (interface{}, error) {
		cmd, err := parseCommand(g)
		if err != nil {
			return nil, err
		}
		fn(cmd)
		return nil, nil
	})
	if err != nil {
		return err
	}

	// The overlay installer runs on every new document and once for the
	// document already loaded.
	if _, err := p.EvalOnNewDocument(controllerJS); err != nil {
		return err
	}
	_, err = p.Eval(controllerJS)
	return err
}

// Info returns the current page URL and title.
func (s *Surface) Info(ctx context.Context) (pagecap.SurfaceInfo, error) {
	if err := s.live(); err != nil {
		return pagecap.SurfaceInfo{}, err
	}
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return pagecap.SurfaceInfo{}, err
	}
	return pagecap.SurfaceInfo{URL: info.URL, Title: info.Title}, nil
}

// Closed returns a channel that is closed when the devtools connection
// goes away, expectedly or not.
func (s *Surface) Closed() <-chan struct{} {
	return s.closed
}

// Close releases browser resources. Close is safe to call multiple times.
func (s *Surface) Close() error {
	var err error
	s.shutOnce.Do(func() {
		s.markClosed()
		if s.browser != nil {
			err = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
		}
	})
	return err
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (s *Surface) LauncherPID() int {
	if s.launcher == nil {
		return 0
	}
	return s.launcher.PID()
}
