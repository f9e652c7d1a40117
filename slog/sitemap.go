// Package slog decorates webrag services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService logs how many in-scope pages a site's sitemaps
// list. A failed discovery is a warning: the crawl falls back to links.
type LoggingSitemapService struct {
	next   webrag.SitemapService
	logger *slog.Logger
}

func NewLoggingSitemapService(next webrag.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *webrag.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "sitemap discovery",
			"url", baseURL,
			"count", len(urls),
			"filtered", filter != nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}
