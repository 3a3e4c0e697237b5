package mock

import (
	"context"

	"github.com/fwojciec/pagecap"
)

var _ pagecap.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of pagecap.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, siteURL string, limit int) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, siteURL string, limit int) ([]string, error) {
	return s.DiscoverURLsFn(ctx, siteURL, limit)
}
