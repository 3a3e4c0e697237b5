package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/batch"
)

// Run executes the batch command.
func (c *BatchCmd) Run(deps *Dependencies) error {
	urls := c.URLs
	if c.File != "" {
		fromFile, err := readURLFile(c.File)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		urls = append(urls, fromFile...)
	}
	if c.Sitemap != "" {
		fmt.Fprintf(deps.Stdout, "Discovering pages from %s...\n", c.Sitemap)
		discovered, err := deps.Sitemap.DiscoverURLs(deps.Ctx, c.Sitemap, c.Max)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Found %d pages.\n", len(discovered))
		urls = append(urls, discovered...)
	}
	if len(urls) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no URLs to capture\n")
		return pagecap.Errorf(pagecap.EINVALID, "no URLs to capture")
	}

	var itemOpts pagecap.BatchItemOptions
	if c.Quality > 0 {
		itemOpts.Encoding = pagecap.ImageEncoding{Format: pagecap.FormatJPEG, Quality: c.Quality}
	}
	deps.Batch.Add(urls, itemOpts)

	cancelSub := deps.Batch.Events().Subscribe(func(ev pagecap.Event) {
		if ev.Type == pagecap.EventBatchProgress {
			fmt.Fprintf(deps.Stdout, "[%d/%d] %s\n", ev.Current, ev.Total, pagecap.TruncateURL(ev.Message, 80))
		}
	})
	defer cancelSub()

	if err := deps.Batch.Start(deps.Ctx, batch.Options{
		SettleDelay: c.Settle,
		ItemDelay:   c.ItemDelay,
	}); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagecap.ErrorMessage(err))
		return err
	}

	select {
	case <-deps.Batch.Done():
	case <-deps.Ctx.Done():
		fmt.Fprintln(deps.Stdout, "Interrupted, stopping after the current item...")
		deps.Batch.Stop()
		<-deps.Batch.Done()
	}

	status := deps.Batch.Status()
	for _, item := range status.Items {
		switch item.Status {
		case pagecap.BatchCompleted:
			fmt.Fprintf(deps.Stdout, "  ok    %s\n", item.OutputPath)
		case pagecap.BatchFailed:
			fmt.Fprintf(deps.Stdout, "  fail  %s: %s\n", item.SourceURL, item.Err)
		default:
			fmt.Fprintf(deps.Stdout, "  skip  %s\n", item.SourceURL)
		}
	}
	fmt.Fprintf(deps.Stdout, "Completed %d of %d (%d failed)\n", status.Completed, status.Total, status.Failed)

	if status.Failed > 0 {
		return fmt.Errorf("%d of %d captures failed", status.Failed, status.Total)
	}
	return nil
}

// readURLFile loads capture sources from a file, one per line. Blank
// lines and lines starting with # are skipped.
func readURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
