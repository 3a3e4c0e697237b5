package pagecap

import "context"

// SitemapService discovers capture source URLs advertised by a site's
// sitemap.
type SitemapService interface {
	// DiscoverURLs finds page URLs from the sitemap of the site at
	// siteURL. Sitemap locations come from robots.txt directives with a
	// fallback to /sitemap.xml; sitemap indexes are resolved
	// recursively. A non-root path on siteURL restricts results to that
	// subtree. A limit greater than zero caps the number of URLs
	// returned.
	DiscoverURLs(ctx context.Context, siteURL string, limit int) ([]string, error)
}
