// Package capture orchestrates paginated screen capture sessions: the
// lifecycle state machine, the page-by-page capture loop, adaptive
// stabilization, and bounded retries for flaky automation actions.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/bloom"
	"golang.org/x/sync/semaphore"
)

// SurfaceFactory creates a new automation surface attachment.
type SurfaceFactory func(ctx context.Context) (pagecap.Surface, error)

// RecognizerFactory creates an OCR engine for one save. The session
// closes the engine after assembly so per-run resources are released.
type RecognizerFactory func() (pagecap.Recognizer, error)

// Sizing for the advisory repeat filter, reset on every save.
const (
	seenFilterSize   = 4096
	seenFilterFPRate = 0.01
)

// probeQuality is the JPEG quality used for stability probes. Probes
// only need to be comparable, not presentable.
const probeQuality = 20

// Options wires a Session.
type Options struct {
	Surface    SurfaceFactory     // required
	Assembler  pagecap.Assembler  // required
	Recognizer RecognizerFactory  // optional; used when OCR is enabled
	Runs       pagecap.RunService // optional capture history
	Events     *pagecap.Events    // optional; a private broker is created when nil
	Logger     *slog.Logger       // optional; slog.Default() when nil

	// Config is the initial capture configuration. The zero value
	// selects DefaultConfig.
	Config pagecap.CaptureConfig

	// Stability tuning. Zero values select the detector defaults.
	StabilityBase    time.Duration
	StabilityMax     time.Duration
	StabilityTimeout time.Duration
}

// Session drives one capture session over an automation surface. It
// owns the capture configuration, the accumulated frame sequence, and
// the lifecycle state. All methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	state    pagecap.CaptureState
	cfg      pagecap.CaptureConfig
	frames   []pagecap.Frame
	memBytes int64
	prevHash uint64
	seen     *bloom.FrameFilter
	surface  pagecap.Surface

	gate       *gate
	loopCancel context.CancelFunc
	loopDone   chan struct{}

	// lease serializes use of the automation surface between the
	// capture loop and borrowers such as batch processing.
	lease *semaphore.Weighted

	factory     SurfaceFactory
	assembler   pagecap.Assembler
	recognizers RecognizerFactory
	runs        pagecap.RunService
	events      *pagecap.Events
	logger      *slog.Logger

	stabilityBase    time.Duration
	stabilityMax     time.Duration
	stabilityTimeout time.Duration
}

// NewSession creates an idle Session from opts.
func NewSession(opts Options) (*Session, error) {
	if opts.Surface == nil {
		return nil, pagecap.Errorf(pagecap.EINVALID, "surface factory required")
	}
	if opts.Assembler == nil {
		return nil, pagecap.Errorf(pagecap.EINVALID, "assembler required")
	}

	cfg := opts.Config
	if cfg == (pagecap.CaptureConfig{}) {
		cfg = pagecap.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	events := opts.Events
	if events == nil {
		events = pagecap.NewEvents()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		state:            pagecap.StateIdle,
		cfg:              cfg,
		seen:             bloom.NewFrameFilter(seenFilterSize, seenFilterFPRate),
		gate:             newGate(),
		lease:            semaphore.NewWeighted(1),
		factory:          opts.Surface,
		assembler:        opts.Assembler,
		recognizers:      opts.Recognizer,
		runs:             opts.Runs,
		events:           events,
		logger:           logger,
		stabilityBase:    opts.StabilityBase,
		stabilityMax:     opts.StabilityMax,
		stabilityTimeout: opts.StabilityTimeout,
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() pagecap.CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns a snapshot of the capture configuration.
func (s *Session) Config() pagecap.CaptureConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// FrameCount returns the number of frames captured so far.
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// MemoryBytes returns the total byte size of retained frames.
func (s *Session) MemoryBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memBytes
}

// Events returns the session's event broker.
func (s *Session) Events() *pagecap.Events {
	return s.events
}

// Launch attaches an automation surface and moves the session to
// Ready. It is idempotent while a surface is already attached and is
// rejected while a capture is active.
func (s *Session) Launch(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Active() {
		s.mu.Unlock()
		return pagecap.Errorf(pagecap.ECONFLICT, "capture in progress")
	}
	if s.surface != nil {
		s.setStateLocked(pagecap.StateReady)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	surface, err := s.factory(ctx)
	if err != nil {
		s.logger.Error("surface attachment failed", "err", err)
		s.events.Emit(pagecap.Event{
			Type:        pagecap.EventError,
			Message:     fmt.Sprintf("launch failed: %v", err),
			Recoverable: false,
		})
		return err
	}

	if err := surface.ExposeCommands(ctx, s.HandleCommand); err != nil {
		surface.Close()
		return fmt.Errorf("expose command channel: %w", err)
	}

	s.mu.Lock()
	s.surface = surface
	s.setStateLocked(pagecap.StateReady)
	s.mu.Unlock()

	go s.watchDisconnect(surface)

	s.logger.Info("automation surface attached")
	return nil
}

// watchDisconnect resets the session when the surface connection goes
// away underneath it. A deliberate Close detaches the surface first,
// so the watcher stays silent.
func (s *Session) watchDisconnect(surface pagecap.Surface) {
	<-surface.Closed()

	s.mu.Lock()
	if s.surface != surface {
		s.mu.Unlock()
		return
	}
	s.surface = nil
	cancel := s.loopCancel
	s.loopCancel = nil
	s.setStateLocked(pagecap.StateIdle)
	frames := len(s.frames)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	s.logger.Warn("automation surface disconnected", "frames", frames)
	s.events.Emit(pagecap.Event{
		Type:        pagecap.EventError,
		Message:     "automation surface disconnected",
		Recoverable: true,
	})
}

// StartCapture merges totalPages and delay into the configuration and
// starts the capture loop in the background. totalPages <= 0 and
// delay < 0 keep their current values. The call returns once the loop
// is running; progress is reported through events.
func (s *Session) StartCapture(ctx context.Context, totalPages int, delay time.Duration) error {
	s.mu.Lock()
	if s.state != pagecap.StateReady {
		state := s.state
		s.mu.Unlock()
		return pagecap.Errorf(pagecap.ECONFLICT, "cannot start capture in state %q", state)
	}
	if s.surface == nil {
		s.mu.Unlock()
		return pagecap.Errorf(pagecap.EUNAVAILABLE, "no automation surface attached")
	}

	cfg := s.cfg
	if totalPages > 0 {
		cfg.TotalPages = totalPages
	}
	if delay >= 0 {
		cfg.PageDelay = delay
	}
	if err := cfg.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}

	if !s.lease.TryAcquire(1) {
		s.mu.Unlock()
		return pagecap.Errorf(pagecap.ECONFLICT, "automation surface is borrowed")
	}

	s.cfg = cfg
	s.gate = newGate()
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.loopCancel = cancel
	done := make(chan struct{})
	s.loopDone = done
	surface := s.surface
	s.setStateLocked(pagecap.StateCapturing)
	s.mu.Unlock()

	s.logger.Info("capture started", "total_pages", cfg.TotalPages, "page_delay", cfg.PageDelay)

	go func() {
		defer close(done)
		defer s.lease.Release(1)
		s.runLoop(loopCtx, surface)
	}()

	return nil
}

// runLoop captures pages from the current frame count up to the
// configured total. Configuration is re-read every iteration so
// updates apply between pages, never within one.
func (s *Session) runLoop(ctx context.Context, surface pagecap.Surface) {
	for {
		if ctx.Err() != nil {
			return
		}

		// Suspended sessions park here until resume or cancellation.
		if err := s.gate.wait(ctx); err != nil {
			return
		}

		cfg := s.Config()
		page := s.FrameCount()
		if page >= cfg.TotalPages {
			s.complete()
			return
		}

		if err := s.capturePage(ctx, surface, cfg, page); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.fail(page, err)
			return
		}
	}
}

// capturePage performs one iteration: focus, dwell, stabilize, shoot,
// record, advance.
func (s *Session) capturePage(ctx context.Context, surface pagecap.Surface, cfg pagecap.CaptureConfig, page int) error {
	if err := surface.Activate(ctx); err != nil {
		return fmt.Errorf("activate surface: %w", err)
	}

	if cfg.PageDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.PageDelay):
		}
	}

	if err := s.detector(surface, cfg).Wait(ctx); err != nil {
		return err
	}

	retrier := Retrier{
		Attempts: cfg.RetryAttempts,
		Delay:    cfg.RetryDelay,
		OnRetry: func(attempt int, err error) {
			s.logger.Warn("screenshot failed, retrying", "page", page+1, "attempt", attempt, "err", err)
		},
	}

	// The control overlay must never appear in a captured frame.
	if err := surface.SetOverlayVisible(ctx, false); err != nil {
		s.logger.Warn("hide overlay", "err", err)
	}
	var data []byte
	err := retrier.Do(ctx, func(ctx context.Context) error {
		var shotErr error
		data, shotErr = surface.Screenshot(ctx, pagecap.ScreenshotOptions{
			Clip:     cfg.Clip,
			Encoding: cfg.Encoding,
		})
		return shotErr
	})
	if restoreErr := surface.SetOverlayVisible(ctx, true); restoreErr != nil && ctx.Err() == nil {
		s.logger.Warn("restore overlay", "err", restoreErr)
	}
	if err != nil {
		return fmt.Errorf("capture page %d: %w", page+1, err)
	}

	s.appendFrame(data, cfg)

	// No advance after the final page.
	if page+1 >= cfg.TotalPages {
		return nil
	}

	retrier.OnRetry = func(attempt int, err error) {
		s.logger.Warn("page advance failed, retrying", "page", page+1, "attempt", attempt, "err", err)
	}
	if err := retrier.Do(ctx, func(ctx context.Context) error {
		return surface.PressKey(ctx, cfg.AdvanceKey)
	}); err != nil {
		return fmt.Errorf("advance past page %d: %w", page+1, err)
	}

	return nil
}

// appendFrame records one captured frame, flags repeats, and reports
// progress. Repeats are kept: in manual pagination a stuck page is the
// user's to notice, not the loop's to guess about.
func (s *Session) appendFrame(data []byte, cfg pagecap.CaptureConfig) {
	hash := xxhash.Sum64(data)

	s.mu.Lock()
	dupPrev := len(s.frames) > 0 && hash == s.prevHash
	dupSeen := !dupPrev && s.seen.Seen(hash)
	s.seen.Add(hash)
	s.prevHash = hash

	frame := pagecap.Frame{Data: data, Lossy: cfg.Encoding.Lossy()}
	s.frames = append(s.frames, frame)
	count := len(s.frames)
	s.memBytes += frame.ByteSize()
	mem := s.memBytes
	s.mu.Unlock()

	switch {
	case dupPrev:
		s.logger.Info("frame identical to previous page", "page", count)
		s.events.Emit(pagecap.Event{
			Type:    pagecap.EventLog,
			Message: fmt.Sprintf("page %d is identical to the previous page", count),
		})
	case dupSeen:
		s.logger.Info("frame may repeat an earlier page", "page", count)
	}

	if threshold := cfg.MemoryCeiling * 8 / 10; cfg.MemoryCeiling > 0 && mem > threshold {
		s.logger.Warn("retained frames approaching memory ceiling",
			"bytes", mem, "ceiling", cfg.MemoryCeiling)
		s.events.Emit(pagecap.Event{
			Type:    pagecap.EventLog,
			Message: fmt.Sprintf("captured frames use %s of the %s ceiling", pagecap.FormatBytes(mem), pagecap.FormatBytes(cfg.MemoryCeiling)),
		})
	}

	s.events.Emit(pagecap.Event{Type: pagecap.EventProgress, Count: count})
}

// detector builds the stability detector for one iteration. Probes
// reuse the capture clip but drop to a low-quality JPEG.
func (s *Session) detector(surface pagecap.Surface, cfg pagecap.CaptureConfig) *Detector {
	return &Detector{
		Probe: func(ctx context.Context) ([]byte, error) {
			return surface.Screenshot(ctx, pagecap.ScreenshotOptions{
				Clip:     cfg.Clip,
				Encoding: pagecap.ImageEncoding{Format: pagecap.FormatJPEG, Quality: probeQuality},
			})
		},
		BaseInterval: s.stabilityBase,
		MaxInterval:  s.stabilityMax,
		Timeout:      s.stabilityTimeout,
		Logger:       s.logger,
	}
}

func (s *Session) complete() {
	s.mu.Lock()
	s.loopCancel = nil
	s.setStateLocked(pagecap.StateCompleted)
	count := len(s.frames)
	s.mu.Unlock()

	s.logger.Info("capture complete", "frames", count)
	s.events.Emit(pagecap.Event{Type: pagecap.EventCompleted, Count: count})
}

// fail aborts the loop on a non-transient error. Captured frames are
// retained so a save can still produce a partial document.
func (s *Session) fail(page int, err error) {
	s.mu.Lock()
	s.loopCancel = nil
	s.setStateLocked(pagecap.StateIdle)
	count := len(s.frames)
	s.mu.Unlock()

	s.logger.Error("capture aborted", "page", page+1, "frames", count, "err", err)
	s.events.Emit(pagecap.Event{
		Type:        pagecap.EventError,
		Message:     err.Error(),
		Stack:       fmt.Sprintf("%+v", err),
		Recoverable: false,
		Page:        page,
	})
}

// Pause suspends the loop at the next page boundary. Pausing a session
// that is not capturing is a no-op.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != pagecap.StateCapturing {
		return
	}
	s.gate.pause()
	s.setStateLocked(pagecap.StatePaused)
	s.logger.Info("capture paused", "frames", len(s.frames))
}

// Resume continues a paused loop from the exact page it stopped at.
// Resuming a session that is not paused is a no-op.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != pagecap.StatePaused {
		return
	}
	s.gate.resume()
	s.setStateLocked(pagecap.StateCapturing)
	s.logger.Info("capture resumed", "frames", len(s.frames))
}

// StopAndSave stops any active loop, assembles the accumulated frames
// into a document, records the run, and resets the session to Idle.
// With zero frames it only resets and returns a nil artifact. It works
// from any state, including after a fatal abort left partial frames.
func (s *Session) StopAndSave(ctx context.Context) (*pagecap.Artifact, error) {
	s.mu.Lock()
	cancel := s.loopCancel
	s.loopCancel = nil
	done := s.loopDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	if s.state.Active() {
		s.setStateLocked(pagecap.StateCompleted)
	}
	frames := make([]pagecap.Frame, len(s.frames))
	copy(frames, s.frames)
	cfg := s.cfg
	surface := s.surface
	s.mu.Unlock()

	if len(frames) == 0 {
		s.reset()
		s.logger.Info("nothing to save")
		return nil, nil
	}

	opts := pagecap.AssembleOptions{
		EmbedMetadata: true,
		CapturedAt:    time.Now(),
	}
	if surface != nil {
		if info, err := surface.Info(ctx); err == nil {
			opts.Title = info.Title
			opts.SourceURL = info.URL
		}
	}

	var results []pagecap.OCRResult
	if cfg.OCREnabled && s.recognizers != nil {
		results = s.recognizeFrames(ctx, frames)
	}

	artifact, err := s.assembler.Assemble(ctx, frames, results, opts)
	if err != nil {
		s.events.Emit(pagecap.Event{
			Type:        pagecap.EventError,
			Message:     fmt.Sprintf("save failed: %v", err),
			Recoverable: true,
		})
		return nil, fmt.Errorf("assemble document: %w", err)
	}

	if s.runs != nil {
		run := &pagecap.Run{
			SourceURL: opts.SourceURL,
			Title:     opts.Title,
			Path:      artifact.Path,
			Pages:     artifact.Pages,
			OCR:       artifact.OCR,
			ByteSize:  artifact.ByteSize,
			CreatedAt: opts.CapturedAt,
		}
		if err := s.runs.CreateRun(ctx, run); err != nil {
			s.logger.Warn("record capture run", "err", err)
		}
	}

	s.reset()

	s.logger.Info("document saved", "path", artifact.Path, "pages", artifact.Pages, "size", pagecap.FormatBytes(artifact.ByteSize))
	s.events.Emit(pagecap.Event{
		Type:    pagecap.EventLog,
		Message: fmt.Sprintf("saved %s (%d pages)", artifact.Path, artifact.Pages),
	})
	return artifact, nil
}

// recognizeFrames runs OCR over every frame. Results align with frames
// by index; if any frame fails the whole set is discarded so assembly
// proceeds without a text layer rather than with a misaligned one.
func (s *Session) recognizeFrames(ctx context.Context, frames []pagecap.Frame) []pagecap.OCRResult {
	rec, err := s.recognizers()
	if err != nil {
		s.logger.Warn("ocr unavailable, saving without text layer", "err", err)
		return nil
	}
	defer func() {
		if cerr := rec.Close(); cerr != nil {
			s.logger.Warn("close ocr engine", "err", cerr)
		}
	}()

	results := make([]pagecap.OCRResult, 0, len(frames))
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("ocr interrupted, saving without text layer", "err", err)
			return nil
		}
		res, err := rec.Recognize(ctx, frame.Data)
		if err != nil {
			s.logger.Warn("ocr failed, saving without text layer", "page", i+1, "err", err)
			return nil
		}
		results = append(results, *res)
	}

	s.logger.Info("ocr complete", "pages", len(results))
	return results
}

// reset clears captured state and returns the session to Idle, ready
// for a fresh capture on the same surface.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
	s.memBytes = 0
	s.prevHash = 0
	s.seen = bloom.NewFrameFilter(seenFilterSize, seenFilterFPRate)
	s.setStateLocked(pagecap.StateIdle)
}

// UpdateConfig replaces the capture configuration wholesale. It is the
// single mutation entry point: an in-flight loop observes either the
// old or the new configuration at its next iteration, never a partial
// merge.
func (s *Session) UpdateConfig(cfg pagecap.CaptureConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// SetClip updates the capture clip region. A nil area restores
// full-viewport capture.
func (s *Session) SetClip(area *pagecap.Clip) error {
	if area != nil {
		if err := area.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cfg.Clip = area
	s.mu.Unlock()

	if area != nil {
		s.logger.Info("capture area set", "x", area.X, "y", area.Y, "width", area.Width, "height", area.Height)
	} else {
		s.logger.Info("capture area cleared")
	}
	s.events.Emit(pagecap.Event{Type: pagecap.EventTrimSet, Area: area})
	return nil
}

// StartTrim enters interactive area selection on the surface. The
// selection arrives back through the command channel as a trim
// command.
func (s *Session) StartTrim(ctx context.Context) error {
	s.mu.Lock()
	surface := s.surface
	active := s.state.Active()
	s.mu.Unlock()

	if surface == nil {
		return pagecap.Errorf(pagecap.EUNAVAILABLE, "no automation surface attached")
	}
	if active {
		return pagecap.Errorf(pagecap.ECONFLICT, "capture in progress")
	}
	return surface.BeginAreaSelect(ctx)
}

// HandleCommand is the single inbound entry point for control commands
// posted by the embedded page controller.
func (s *Session) HandleCommand(cmd pagecap.Command) {
	switch cmd.Action {
	case pagecap.CommandStart:
		delay := cmd.Delay
		if delay == 0 {
			delay = -1 // unset on the wire means keep the configured delay
		}
		if err := s.StartCapture(context.Background(), cmd.Pages, delay); err != nil {
			s.logger.Warn("start command rejected", "err", err)
			s.events.Emit(pagecap.Event{
				Type:        pagecap.EventError,
				Message:     pagecap.ErrorMessage(err),
				Recoverable: true,
			})
		}
	case pagecap.CommandPause:
		s.Pause()
	case pagecap.CommandResume:
		s.Resume()
	case pagecap.CommandStop:
		// Saving blocks on the loop winding down, so it cannot run on
		// the surface's callback goroutine.
		go func() {
			if _, err := s.StopAndSave(context.Background()); err != nil {
				s.logger.Error("stop command failed", "err", err)
			}
		}()
	case pagecap.CommandTrim:
		if cmd.Area == nil {
			s.logger.Warn("trim command without an area")
			return
		}
		if err := s.SetClip(cmd.Area); err != nil {
			s.logger.Warn("trim command rejected", "err", err)
		}
	default:
		s.logger.Warn("unknown command", "action", cmd.Action)
	}
}

// Borrow hands the attached surface to another activity, serializing
// its use against the capture loop. The returned release function must
// be called when done; it is safe to call more than once. Borrowing
// fails while a capture loop holds the surface.
func (s *Session) Borrow() (pagecap.Surface, func(), error) {
	s.mu.Lock()
	surface := s.surface
	s.mu.Unlock()

	if surface == nil {
		return nil, nil, pagecap.Errorf(pagecap.EUNAVAILABLE, "no automation surface attached")
	}
	if !s.lease.TryAcquire(1) {
		return nil, nil, pagecap.Errorf(pagecap.ECONFLICT, "capture loop is using the automation surface")
	}

	var once sync.Once
	release := func() {
		once.Do(func() { s.lease.Release(1) })
	}
	return surface, release, nil
}

// Close stops any active loop, detaches the surface, and returns the
// session to Idle. Captured frames are discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	cancel := s.loopCancel
	s.loopCancel = nil
	done := s.loopDone
	surface := s.surface
	s.surface = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	s.reset()

	if surface == nil {
		return nil
	}
	return surface.Close()
}

// setStateLocked applies a lifecycle transition. Illegal edges are
// dropped and logged; callers guard their own preconditions, so a drop
// here means a bug upstream.
func (s *Session) setStateLocked(next pagecap.CaptureState) {
	if s.state == next {
		return
	}
	if !s.state.CanBecome(next) {
		s.logger.Error("illegal state transition", "from", s.state, "to", next)
		return
	}
	s.state = next
}
