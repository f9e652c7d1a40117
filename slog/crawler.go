package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.Crawler = (*LoggingCrawler)(nil)

// LoggingCrawler logs each crawl with the number of pages and bytes
// collected.
type LoggingCrawler struct {
	next   webrag.Crawler
	logger *slog.Logger
}

func NewLoggingCrawler(next webrag.Crawler, logger *slog.Logger) *LoggingCrawler {
	return &LoggingCrawler{next: next, logger: logger}
}

func (c *LoggingCrawler) Crawl(ctx context.Context, url string, maxPages int) (pages []*webrag.Page, err error) {
	defer func(begin time.Time) {
		var size int
		for _, p := range pages {
			size += len(p.Content)
		}
		c.logger.Info("crawl",
			"url", url,
			"max_pages", maxPages,
			"pages", len(pages),
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Crawl(ctx, url, maxPages)
}
