package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/pagecap"
)

// trimTimeout bounds the wait for an interactive area selection. With no
// selection by then the capture proceeds over the full viewport.
const trimTimeout = 2 * time.Minute

// captureOutcome describes why the capture wait ended.
type captureOutcome struct {
	aborted bool   // the loop hit a fatal error
	saved   bool   // the page controller already saved the document
	message string // error message for aborted outcomes
}

// Run executes the capture command.
func (c *CaptureCmd) Run(deps *Dependencies) error {
	ctx := deps.Ctx

	if c.Clip != "" {
		area, err := parseClip(c.Clip)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
			return err
		}
		if err := deps.Session.SetClip(area); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
			return err
		}
	}

	done := make(chan captureOutcome, 1)
	finish := func(out captureOutcome) {
		select {
		case done <- out:
		default:
		}
	}
	trimSet := make(chan struct{}, 1)

	cancelSub := deps.Session.Events().Subscribe(func(ev pagecap.Event) {
		switch ev.Type {
		case pagecap.EventProgress:
			fmt.Fprintf(deps.Stdout, "  page %d captured\n", ev.Count)
		case pagecap.EventTrimSet:
			if ev.Area != nil {
				fmt.Fprintf(deps.Stdout, "  capture area %gx%g at (%g, %g)\n",
					ev.Area.Width, ev.Area.Height, ev.Area.X, ev.Area.Y)
			}
			select {
			case trimSet <- struct{}{}:
			default:
			}
		case pagecap.EventLog:
			fmt.Fprintf(deps.Stdout, "  %s\n", ev.Message)
			// The session reports its own save when the page controller
			// stops the run.
			if strings.HasPrefix(ev.Message, "saved ") {
				finish(captureOutcome{saved: true})
			}
		case pagecap.EventError:
			fmt.Fprintf(deps.Stderr, "  error: %s\n", ev.Message)
			if !ev.Recoverable {
				finish(captureOutcome{aborted: true, message: ev.Message})
			}
		case pagecap.EventCompleted:
			finish(captureOutcome{})
		}
	})
	defer cancelSub()

	if c.Trim {
		if err := deps.Session.StartTrim(ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, "Drag across the page to select the capture area (Esc keeps the full viewport)...")
		select {
		case <-trimSet:
		case <-time.After(trimTimeout):
			fmt.Fprintln(deps.Stdout, "No selection made, capturing the full viewport.")
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := deps.Session.StartCapture(ctx, c.Pages, c.Delay); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
		return err
	}

	var out captureOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		fmt.Fprintln(deps.Stdout, "Interrupted, saving captured pages...")
	}

	if out.saved {
		return nil
	}

	artifact, err := deps.Session.StopAndSave(context.WithoutCancel(ctx))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
		return err
	}

	if artifact == nil {
		if out.aborted {
			return pagecap.Errorf(pagecap.EINTERNAL, "capture aborted: %s", out.message)
		}
		fmt.Fprintln(deps.Stdout, "No pages captured, nothing saved.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Saved %s (%d pages, %s)\n",
		artifact.Path, artifact.Pages, pagecap.FormatBytes(artifact.ByteSize))

	if out.aborted {
		return pagecap.Errorf(pagecap.EINTERNAL, "capture aborted: %s", out.message)
	}
	return nil
}

// parseClip parses a capture area given as "x,y,width,height".
func parseClip(s string) (*pagecap.Clip, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, pagecap.Errorf(pagecap.EINVALID, "clip must be x,y,width,height, got %q", s)
	}

	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, pagecap.Errorf(pagecap.EINVALID, "clip must be x,y,width,height, got %q", s)
		}
		values[i] = v
	}

	clip := &pagecap.Clip{X: values[0], Y: values[1], Width: values[2], Height: values[3]}
	if err := clip.Validate(); err != nil {
		return nil, err
	}
	return clip, nil
}
