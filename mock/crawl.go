package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var (
	_ webrag.Crawler        = (*Crawler)(nil)
	_ webrag.Fetcher        = (*Fetcher)(nil)
	_ webrag.Extractor      = (*Extractor)(nil)
	_ webrag.Converter      = (*Converter)(nil)
	_ webrag.LinkSelector   = (*LinkSelector)(nil)
	_ webrag.DomainLimiter  = (*DomainLimiter)(nil)
	_ webrag.SitemapService = (*SitemapService)(nil)
	_ webrag.TokenCounter   = (*TokenCounter)(nil)
)

// Crawler is a mock implementation of webrag.Crawler.
type Crawler struct {
	CrawlFn func(ctx context.Context, url string, maxPages int) ([]*webrag.Page, error)
}

func (c *Crawler) Crawl(ctx context.Context, url string, maxPages int) ([]*webrag.Page, error) {
	return c.CrawlFn(ctx, url, maxPages)
}

// Fetcher is a mock implementation of webrag.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// Extractor is a mock implementation of webrag.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*webrag.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*webrag.ExtractResult, error) {
	return e.ExtractFn(html)
}

// Converter is a mock implementation of webrag.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

// LinkSelector is a mock implementation of webrag.LinkSelector.
type LinkSelector struct {
	ExtractLinksFn func(html string, baseURL string) ([]webrag.DiscoveredLink, error)
}

func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]webrag.DiscoveredLink, error) {
	return s.ExtractLinksFn(html, baseURL)
}

// DomainLimiter is a mock implementation of webrag.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

// SitemapService is a mock implementation of webrag.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *webrag.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *webrag.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

// TokenCounter is a mock implementation of webrag.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
