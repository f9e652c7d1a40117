// Package crawl turns a website into pages of readable text. It fetches the
// start URL, discovers further pages from sitemaps and in-page links, and
// extracts the main content of each page as markdown.
package crawl

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.Crawler = (*Crawler)(nil)

// RenderMode selects how pages are fetched.
type RenderMode string

const (
	// RenderAuto probes the start URL with both fetchers and uses the
	// browser only when JavaScript rendering adds content.
	RenderAuto RenderMode = "auto"
	// RenderHTTP fetches static HTML only.
	RenderHTTP RenderMode = "http"
	// RenderBrowser renders every page in a headless browser.
	RenderBrowser RenderMode = "browser"
)

// DefaultConcurrency is the number of pages fetched in parallel.
const DefaultConcurrency = 3

// Crawler collects up to maxPages pages from one website.
type Crawler struct {
	// Sitemaps, if set, seeds the frontier with sitemap URLs.
	Sitemaps webrag.SitemapService

	HTTPFetcher webrag.Fetcher
	// RodFetcher renders JavaScript. Optional in RenderAuto mode.
	RodFetcher webrag.Fetcher

	Extractor    webrag.Extractor
	Converter    webrag.Converter
	LinkSelector webrag.LinkSelector
	RateLimiter  webrag.DomainLimiter

	// Filter drops discovered URLs. The start URL is always crawled.
	Filter *webrag.URLFilter

	Render      RenderMode
	Concurrency int
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// crawlResult holds the outcome of processing a single URL.
type crawlResult struct {
	seq        int
	url        string
	page       *webrag.Page
	discovered []webrag.DiscoveredLink
	err        error
}

// Crawl fetches rawURL and the pages discovered from it. Pages come back in
// dispatch order with the start page first. Failing pages are logged and
// skipped; the crawl fails only when the start URL cannot be fetched or no
// page yields any text.
func (c *Crawler) Crawl(ctx context.Context, rawURL string, maxPages int) ([]*webrag.Page, error) {
	start, err := url.Parse(rawURL)
	if err != nil || (start.Scheme != "http" && start.Scheme != "https") || start.Host == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "invalid website URL %q", rawURL)
	}
	start.Fragment = ""
	startURL := start.String()

	if maxPages <= 0 {
		maxPages = webrag.DefaultMaxPages
	}
	logger := c.logger()

	fetcher, startHTML, err := c.probe(ctx, startURL)
	if err != nil {
		return nil, startError(ctx, startURL, err)
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(webrag.DiscoveredLink{URL: startURL, Priority: webrag.PriorityNavigation, Source: "start"})

	sc := newScope(start, c.Filter)
	if c.Sitemaps != nil {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, startURL, c.Filter)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("sitemap discovery failed", "url", startURL, "error", err)
		}
		for _, u := range urls {
			if sc.contains(u) {
				frontier.Push(webrag.DiscoveredLink{URL: u, Priority: webrag.PriorityNavigation, Source: "sitemap"})
			}
		}
	}

	process := func(ctx context.Context, link webrag.DiscoveredLink) crawlResult {
		if link.URL == startURL {
			return c.parsePage(link.URL, startHTML)
		}
		html, err := c.fetch(ctx, fetcher, link.URL)
		if err != nil {
			return crawlResult{url: link.URL, err: err}
		}
		return c.parsePage(link.URL, html)
	}

	var results []crawlResult
	handle := func(res *crawlResult) bool {
		for _, l := range res.discovered {
			if sc.contains(l.URL) {
				frontier.Push(l)
			}
		}
		if res.err != nil {
			logger.Warn("skipping page", "url", res.url, "error", res.err)
			return false
		}
		results = append(results, *res)
		return true
	}

	if err := c.walkFrontier(ctx, frontier, maxPages, process, handle); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b crawlResult) int { return cmp.Compare(a.seq, b.seq) })
	pages := make([]*webrag.Page, 0, len(results))
	for _, r := range results {
		pages = append(pages, r.page)
	}
	if len(pages) == 0 {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil,
			"no readable content found at %s", startURL)
	}
	return pages, nil
}

// probe fetches the start URL and picks the fetcher for the rest of the
// crawl. In RenderAuto mode the browser wins only when it extracts
// noticeably more content than plain HTTP.
func (c *Crawler) probe(ctx context.Context, startURL string) (webrag.Fetcher, string, error) {
	switch c.Render {
	case RenderBrowser:
		if c.RodFetcher == nil {
			return nil, "", webrag.Errorf(webrag.EINVALID, "browser rendering requires a browser fetcher")
		}
		html, err := c.fetch(ctx, c.RodFetcher, startURL)
		return c.RodFetcher, html, err
	case RenderHTTP:
		html, err := c.fetch(ctx, c.HTTPFetcher, startURL)
		return c.HTTPFetcher, html, err
	}

	httpHTML, httpErr := c.fetch(ctx, c.HTTPFetcher, startURL)
	if c.RodFetcher == nil {
		return c.HTTPFetcher, httpHTML, httpErr
	}
	if httpErr != nil {
		if ctx.Err() != nil || webrag.ErrorReason(httpErr) == webrag.ReasonDisallowed {
			return nil, "", httpErr
		}
		rodHTML, rodErr := c.fetch(ctx, c.RodFetcher, startURL)
		if rodErr != nil {
			return nil, "", httpErr
		}
		return c.RodFetcher, rodHTML, nil
	}

	rodHTML, rodErr := c.fetch(ctx, c.RodFetcher, startURL)
	if rodErr != nil {
		c.logger().Debug("browser probe failed", "url", startURL, "error", rodErr)
		return c.HTTPFetcher, httpHTML, nil
	}
	if ContentDiffers(httpHTML, rodHTML, c.Extractor) {
		c.logger().Info("using browser rendering", "url", startURL)
		return c.RodFetcher, rodHTML, nil
	}
	return c.HTTPFetcher, httpHTML, nil
}

// fetch waits for the domain's rate limit and fetches with retries.
func (c *Crawler) fetch(ctx context.Context, f webrag.Fetcher, rawURL string) (string, error) {
	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	fetchFn := func(ctx context.Context, u string) (string, error) {
		if c.RateLimiter != nil {
			parsed, err := url.Parse(u)
			if err != nil {
				return "", webrag.Errorf(webrag.EINVALID, "invalid URL %q", u)
			}
			if err := c.RateLimiter.Wait(ctx, parsed.Host); err != nil {
				return "", err
			}
		}
		return f.Fetch(ctx, u)
	}
	return FetchWithRetryDelays(ctx, rawURL, fetchFn, c.Logger, delays)
}

// parsePage extracts links and readable content from fetched HTML.
func (c *Crawler) parsePage(rawURL, html string) crawlResult {
	res := crawlResult{url: rawURL}

	if c.LinkSelector != nil {
		if links, err := c.LinkSelector.ExtractLinks(html, rawURL); err == nil {
			res.discovered = links
		}
	}

	extracted, err := c.Extractor.Extract(html)
	if err != nil {
		res.err = err
		return res
	}
	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		res.err = err
		return res
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		res.err = webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil, "no readable content at %s", rawURL)
		return res
	}

	res.page = &webrag.Page{
		URL:       rawURL,
		Title:     strings.TrimSpace(extracted.Title),
		Content:   markdown,
		CrawledAt: time.Now().UTC(),
	}
	return res
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// startError types a failure to fetch the start URL.
func startError(ctx context.Context, startURL string, err error) error {
	var e *webrag.Error
	if errors.As(err, &e) || ctx.Err() != nil {
		return err
	}
	return webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnreachable, err, "cannot fetch %s", startURL)
}

// scope limits a crawl to the start URL's host and path prefix.
type scope struct {
	host   string
	prefix string
	filter *webrag.URLFilter
}

func newScope(start *url.URL, filter *webrag.URLFilter) *scope {
	prefix := start.Path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &scope{host: strings.ToLower(start.Host), prefix: prefix, filter: filter}
}

// contains reports whether rawURL is on the same host, under the path
// prefix at a segment boundary, and passes the filter.
func (s *scope) contains(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || strings.ToLower(u.Host) != s.host {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path+"/", s.prefix) {
		return false
	}
	return s.filter.Match(rawURL)
}
