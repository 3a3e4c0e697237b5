// Package http discovers capture source URLs from website sitemaps over
// plain HTTP. Page rendering and capture stay on the automation surface;
// this package only reads robots.txt and sitemap XML.
package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/pagecap"
)

var _ pagecap.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URLs from website sitemaps via HTTP.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a SitemapService using client. A nil client
// selects http.DefaultClient.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs finds page URLs from the sitemap of the site at siteURL.
// Sitemap locations come from the site's robots.txt with a fallback to
// /sitemap.xml, and sitemap indexes are resolved recursively. A non-root
// path on siteURL restricts results to that subtree; limit > 0 caps the
// number of URLs returned. With no sitemap at all the result is empty,
// not an error.
func (s *SitemapService) DiscoverURLs(ctx context.Context, siteURL string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return nil, pagecap.Errorf(pagecap.EINVALID, "invalid site URL %q", siteURL)
	}

	prefix := base.Path
	if prefix == "/" {
		prefix = ""
	}

	// Sitemaps live at the root of the host regardless of the subtree
	// requested.
	root := *base
	root.Path = ""

	sitemaps, err := s.locateSitemaps(ctx, &root)
	if err != nil {
		return nil, err
	}

	var urls []string
	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	for _, sm := range sitemaps {
		found, err := s.collectSitemap(ctx, sm, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			if seenURLs[u] {
				continue
			}
			seenURLs[u] = true
			if prefix == "" || underPrefix(u, prefix) {
				urls = append(urls, u)
			}
		}
	}

	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// locateSitemaps returns the site's sitemap URLs: robots.txt directives
// when present, otherwise /sitemap.xml if it responds.
func (s *SitemapService) locateSitemaps(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.sitemapsFromRobots(ctx, robots.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	ok, err := s.headOK(ctx, fallback.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if ok {
		return []string{fallback.String()}, nil
	}
	return nil, nil
}

// sitemapsFromRobots extracts Sitemap: directives from robots.txt.
func (s *SitemapService) sitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			continue
		}
		if sm := strings.TrimSpace(line[len("sitemap:"):]); sm != "" {
			sitemaps = append(sitemaps, sm)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	return sitemaps, nil
}

// collectSitemap fetches one sitemap and returns its URLs, recursing
// into sitemap indexes. seen guards against index cycles.
func (s *SitemapService) collectSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parse sitemap XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap at %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		var urls []string
		for _, el := range root.SelectElements("sitemap") {
			loc := el.SelectElement("loc")
			if loc == nil {
				continue
			}
			child := strings.TrimSpace(loc.Text())
			if child == "" {
				continue
			}
			found, err := s.collectSitemap(ctx, child, seen)
			if err != nil {
				return nil, err
			}
			urls = append(urls, found...)
		}
		return urls, nil
	}

	var urls []string
	for _, el := range root.SelectElements("url") {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// underPrefix reports whether the URL's path falls inside prefix,
// respecting path segment boundaries: /docs matches /docs/intro but not
// /documentation.
func underPrefix(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(parsed.Path, prefix)
}

func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}

func (s *SitemapService) headOK(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
