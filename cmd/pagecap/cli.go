package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/batch"
	"github.com/fwojciec/pagecap/capture"
	"github.com/fwojciec/pagecap/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	DB      *sqlite.DB
	Runs    pagecap.RunService
	Session *capture.Session
	Batch   *batch.Processor
	Sitemap pagecap.SitemapService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Capture CaptureCmd `cmd:"" help:"Capture a paginated document from a URL"`
	Batch   BatchCmd   `cmd:"" help:"Capture a list of URLs unattended"`
	Runs    RunsCmd    `cmd:"" help:"List saved capture runs"`
}

// CaptureCmd is the "capture" subcommand.
type CaptureCmd struct {
	URL     string        `arg:"" help:"Address of the page to capture"`
	Pages   int           `short:"p" default:"10" help:"Number of pages to capture"`
	Delay   time.Duration `short:"d" default:"2s" help:"Dwell on each page before capturing"`
	Key     string        `short:"k" default:"ArrowRight" help:"Key pressed to turn pages"`
	OCR     bool          `help:"Embed an invisible text layer in the document"`
	Engine  string        `default:"tesseract" enum:"tesseract,gemini" help:"OCR engine"`
	Lang    []string      `short:"l" help:"Tesseract language codes (repeatable)"`
	Trim    bool          `short:"t" help:"Select the capture area by dragging in the browser"`
	Clip    string        `help:"Capture area as x,y,width,height"`
	Quality int           `short:"q" help:"JPEG quality 1-100; unset captures lossless PNG"`
	Headed  bool          `help:"Run the browser with a visible window"`
}

// BatchCmd is the "batch" subcommand.
type BatchCmd struct {
	URLs      []string      `arg:"" optional:"" help:"Pages to capture"`
	File      string        `short:"f" help:"File with one URL per line"`
	Sitemap   string        `short:"s" help:"Discover pages from this site's sitemap"`
	Max       int           `default:"100" help:"Maximum number of sitemap URLs to enqueue"`
	Settle    time.Duration `default:"2s" help:"Wait after navigation before capturing"`
	ItemDelay time.Duration `default:"3s" help:"Pause between items"`
	Quality   int           `short:"q" help:"JPEG quality 1-100; unset captures lossless PNG"`
	Headed    bool          `help:"Run the browser with a visible window"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Limit  int    `short:"n" default:"20" help:"Maximum number of runs to list"`
	Delete string `help:"Delete the run with the given ID"`
}
