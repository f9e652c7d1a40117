package webrag

import (
	"context"
	"time"
)

// DefaultMaxPages caps a crawl when the caller does not set a limit.
const DefaultMaxPages = 20

// Page represents a crawled website page.
type Page struct {
	URL       string
	Title     string
	Content   string // Markdown
	CrawledAt time.Time
}

// Crawler retrieves the content pages of a website.
type Crawler interface {
	// Crawl fetches up to maxPages pages starting at url. The start page
	// comes first. Returns ECRAWL with ReasonUnreachable, ReasonDisallowed
	// or ReasonNoContent when no page could be produced.
	Crawl(ctx context.Context, url string, maxPages int) ([]*Page, error)
}
