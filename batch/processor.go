// Package batch sequences multiple capture sources through one shared
// automation surface, isolating per-item failures.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/fs"
)

// Batch processing defaults.
const (
	DefaultNavTimeout  = 30 * time.Second
	DefaultSettleDelay = 2 * time.Second
	DefaultItemDelay   = 3 * time.Second

	// defaultHostRPS backstops politeness toward a single host when
	// the inter-item delay is turned down.
	defaultHostRPS = 0.5
)

// Borrower hands out exclusive access to the shared automation
// surface. The capture session implements it; its lease keeps batch
// runs and interactive capture loops from interleaving.
type Borrower interface {
	Borrow() (pagecap.Surface, func(), error)
}

// Options tune one processing run. Zero durations select the package
// defaults; negative durations disable the delay they tune.
type Options struct {
	// NavTimeout bounds navigation to each item's source.
	NavTimeout time.Duration

	// SettleDelay is the wait between navigation and capture.
	SettleDelay time.Duration

	// ItemDelay is the pacing wait after each item except the last.
	ItemDelay time.Duration

	// Encoding is the frame encoding for items without their own.
	Encoding pagecap.ImageEncoding
}

func (o Options) withDefaults() Options {
	if o.NavTimeout <= 0 {
		o.NavTimeout = DefaultNavTimeout
	}
	switch {
	case o.SettleDelay == 0:
		o.SettleDelay = DefaultSettleDelay
	case o.SettleDelay < 0:
		o.SettleDelay = 0
	}
	switch {
	case o.ItemDelay == 0:
		o.ItemDelay = DefaultItemDelay
	case o.ItemDelay < 0:
		o.ItemDelay = 0
	}
	return o
}

// Processor owns the batch queue and drives items through a borrowed
// surface strictly in enqueue order. One item's failure never aborts
// the run. All methods are safe for concurrent use.
type Processor struct {
	borrower Borrower
	store    *fs.Store
	limiter  *HostLimiter
	events   *pagecap.Events
	logger   *slog.Logger

	mu         sync.Mutex
	items      []pagecap.BatchItem
	nextID     int64
	processing bool
	stop       bool
	done       chan struct{}
}

// NewProcessor creates a Processor that writes captures through store.
func NewProcessor(borrower Borrower, store *fs.Store, events *pagecap.Events, logger *slog.Logger) *Processor {
	if events == nil {
		events = pagecap.NewEvents()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		borrower: borrower,
		store:    store,
		limiter:  NewHostLimiter(defaultHostRPS),
		events:   events,
		logger:   logger,
	}
}

// Events returns the processor's event broker.
func (p *Processor) Events() *pagecap.Events {
	return p.events
}

// Add appends sources to the queue as pending items with unique,
// monotonically increasing identifiers. It may be called at any time,
// including while a run is processing; items added mid-run are picked
// up by that run. The assigned identifiers are returned in order.
func (p *Processor) Add(urls []string, opts pagecap.BatchItemOptions) []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]int64, 0, len(urls))
	for _, u := range urls {
		p.nextID++
		p.items = append(p.items, pagecap.BatchItem{
			ID:        p.nextID,
			SourceURL: u,
			Options:   opts,
			Status:    pagecap.BatchPending,
		})
		ids = append(ids, p.nextID)
	}
	return ids
}

// Clear resets the queue and its results. It fails while a run is
// active. Identifiers keep increasing across clears.
func (p *Processor) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.processing {
		return pagecap.Errorf(pagecap.ECONFLICT, "cannot clear the queue while processing")
	}
	p.items = nil
	return nil
}

// Status returns a point-in-time snapshot without blocking on the run.
func (p *Processor) Status() pagecap.BatchStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *Processor) statusLocked() pagecap.BatchStatus {
	st := pagecap.BatchStatus{
		Processing: p.processing,
		Total:      len(p.items),
		Items:      make([]pagecap.BatchItem, len(p.items)),
	}
	copy(st.Items, p.items)
	for _, item := range p.items {
		switch item.Status {
		case pagecap.BatchCompleted:
			st.Completed++
		case pagecap.BatchFailed:
			st.Failed++
		default:
			st.Pending++
		}
	}
	return st
}

// Done returns a channel closed when the current run finishes. With no
// run active the returned channel is already closed.
func (p *Processor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.done
}

// Stop requests that the run halt after the item in flight. Items not
// yet processed keep their pending status. Stopping an idle processor
// is a no-op.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.processing {
		return
	}
	p.stop = true
	p.logger.Info("batch stop requested")
}

// Start borrows the surface and begins processing the queue in the
// background. It fails if a run is already active, the queue is empty,
// or the surface is unavailable. Completion is reported through the
// Done channel and a batch_complete event.
func (p *Processor) Start(ctx context.Context, opts Options) error {
	p.mu.Lock()
	if p.processing {
		p.mu.Unlock()
		return pagecap.Errorf(pagecap.ECONFLICT, "batch processing is already active")
	}
	if len(p.items) == 0 {
		p.mu.Unlock()
		return pagecap.Errorf(pagecap.EINVALID, "batch queue is empty")
	}
	p.mu.Unlock()

	surface, release, err := p.borrower.Borrow()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.processing = true
	p.stop = false
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer release()
		p.run(ctx, surface, opts.withDefaults())
	}()

	return nil
}

func (p *Processor) run(ctx context.Context, surface pagecap.Surface, opts Options) {
	for i := 0; ; i++ {
		// Stop and cancellation are honored between items, never
		// mid-item.
		if p.stopRequested() || ctx.Err() != nil {
			break
		}

		p.mu.Lock()
		if i >= len(p.items) {
			p.mu.Unlock()
			break
		}
		item := p.items[i]
		total := len(p.items)
		p.items[i].Status = pagecap.BatchProcessing
		p.mu.Unlock()

		p.logger.Info("batch item started",
			"id", item.ID, "url", pagecap.TruncateURL(item.SourceURL, 80), "position", i+1, "total", total)
		p.events.Emit(pagecap.Event{
			Type:    pagecap.EventBatchProgress,
			Message: item.SourceURL,
			Current: i + 1,
			Total:   total,
		})

		path, err := p.captureItem(ctx, surface, item, opts)

		p.mu.Lock()
		if err != nil {
			p.items[i].Status = pagecap.BatchFailed
			p.items[i].Err = err.Error()
		} else {
			p.items[i].Status = pagecap.BatchCompleted
			p.items[i].OutputPath = path
		}
		last := i >= len(p.items)-1
		p.mu.Unlock()

		if err != nil {
			p.logger.Warn("batch item failed", "id", item.ID, "url", item.SourceURL, "err", err)
		} else {
			p.logger.Info("batch item completed", "id", item.ID, "path", path)
		}

		if last || p.stopRequested() {
			continue
		}
		if opts.ItemDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.ItemDelay):
			}
		}
	}

	p.mu.Lock()
	p.processing = false
	p.done = nil
	status := p.statusLocked()
	p.mu.Unlock()

	p.logger.Info("batch run finished",
		"completed", status.Completed, "failed", status.Failed, "pending", status.Pending)
	p.events.Emit(pagecap.Event{Type: pagecap.EventBatchComplete, Batch: &status})
}

func (p *Processor) stopRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop
}

// captureItem navigates to the item's source and writes one full-page
// capture to the store.
func (p *Processor) captureItem(ctx context.Context, surface pagecap.Surface, item pagecap.BatchItem, opts Options) (string, error) {
	u, err := url.Parse(item.SourceURL)
	if err != nil || u.Host == "" {
		return "", pagecap.Errorf(pagecap.EINVALID, "invalid source URL %q", item.SourceURL)
	}
	if err := p.limiter.Wait(ctx, u.Host); err != nil {
		return "", err
	}

	navCtx, cancel := context.WithTimeout(ctx, opts.NavTimeout)
	defer cancel()
	if err := surface.Navigate(navCtx, item.SourceURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	// Batch mode trades the adaptive stability wait for a flat settle
	// delay; unattended pages have no one to notice a slow straggler.
	if opts.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(opts.SettleDelay):
		}
	}

	encoding := opts.Encoding
	if item.Options.Encoding != (pagecap.ImageEncoding{}) {
		encoding = item.Options.Encoding
	}
	data, err := surface.Screenshot(ctx, pagecap.ScreenshotOptions{
		Encoding: encoding,
		FullPage: true,
	})
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}

	path, err := p.store.SaveBatchCapture(item.ID, item.SourceURL, encoding.Format, data)
	if err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}
	return path, nil
}
