package webrag

import (
	"context"
	"regexp"
)

// LinkPriority orders links in the crawl frontier (higher is crawled first).
type LinkPriority int

// Link priority levels.
const (
	PriorityIgnore     LinkPriority = 0
	PriorityFallback   LinkPriority = 10
	PriorityFooter     LinkPriority = 20
	PriorityContent    LinkPriority = 50
	PriorityNavigation LinkPriority = 100
)

// DiscoveredLink is a same-site URL found on a crawled page.
type DiscoveredLink struct {
	URL      string
	Priority LinkPriority
	Text     string
	Source   string // "nav", "content", "footer", "fallback"
}

// LinkSelector extracts prioritized same-host links from HTML.
type LinkSelector interface {
	// ExtractLinks resolves links against baseURL and drops external ones.
	ExtractLinks(html string, baseURL string) ([]DiscoveredLink, error)
}

// URLFrontier is a deduplicating priority queue of links to crawl.
type URLFrontier interface {
	// Push returns false if the URL was already seen.
	Push(link DiscoveredLink) bool
	Pop() (DiscoveredLink, bool)
	Len() int
	Seen(url string) bool
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until a request to domain is allowed or ctx is done.
	Wait(ctx context.Context, domain string) error
}

// SitemapService discovers page URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs checks robots.txt for Sitemap directives, then falls
	// back to /sitemap.xml. Sitemap indexes are resolved recursively and
	// results are restricted to the path prefix of baseURL.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// DefaultExcludePatterns match pages that never carry site content worth
// answering from.
var DefaultExcludePatterns = []string{
	`/privacy-policy`,
	`/terms-of-service`,
	`/login`,
	`/signup`,
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include, when set, requires a URL to match at least one pattern.
	Include []*regexp.Regexp

	// Exclude drops URLs matching any pattern. Applied after Include.
	Exclude []*regexp.Regexp
}

// NewURLFilter compiles include and exclude patterns.
func NewURLFilter(include, exclude []string) (*URLFilter, error) {
	f := &URLFilter{}
	for _, p := range include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", p, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, p := range exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}

// Match returns true if the URL passes the filter. A nil filter passes
// everything.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}
