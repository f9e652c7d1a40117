package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/webrag"
)

// maxSitemapURLs caps how many page URLs one discovery collects.
const maxSitemapURLs = 50000

var _ webrag.SitemapService = (*SitemapService)(nil)

// SitemapService discovers page URLs from a site's sitemaps.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService returns a SitemapService. A nil client uses
// http.DefaultClient.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the deduplicated page URLs listed by the sitemaps of
// baseURL's host that fall under baseURL's path and pass filter. A site
// without sitemaps yields an empty slice, not an error.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *webrag.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "invalid base URL %q", baseURL)
	}
	pathPrefix := base.Path
	if pathPrefix == "/" {
		pathPrefix = ""
	}
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	sitemapURLs, err := s.findSitemapURLs(ctx, root)
	if err != nil {
		return nil, err
	}

	d := &discovery{
		svc:          s,
		seenSitemaps: make(map[string]bool),
		seenURLs:     make(map[string]bool),
		urls:         []string{},
		keep: func(u string) bool {
			return (pathPrefix == "" || matchesPathPrefix(u, pathPrefix)) && filter.Match(u)
		},
	}
	for _, sm := range sitemapURLs {
		if err := d.process(ctx, sm); err != nil {
			return nil, err
		}
	}
	return d.urls, nil
}

// discovery walks sitemaps and sitemap indexes, collecting kept URLs.
type discovery struct {
	svc          *SitemapService
	seenSitemaps map[string]bool
	seenURLs     map[string]bool
	urls         []string
	keep         func(string) bool
}

func (d *discovery) process(ctx context.Context, sitemapURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.seenSitemaps[sitemapURL] || len(d.urls) >= maxSitemapURLs {
		return nil
	}
	d.seenSitemaps[sitemapURL] = true

	body, err := d.svc.fetch(ctx, sitemapURL)
	if err != nil {
		return err
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(sitemapURL, ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, err, "decompressing sitemap %s", sitemapURL)
		}
		defer gz.Close()
		r = gz
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, err, "parsing sitemap %s", sitemapURL)
	}
	root := doc.Root()
	if root == nil {
		return webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil, "empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		for _, loc := range locs(root, "sitemap") {
			if err := d.process(ctx, loc); err != nil {
				return err
			}
		}
		return nil
	}

	for _, loc := range locs(root, "url") {
		if d.seenURLs[loc] || !d.keep(loc) {
			continue
		}
		d.seenURLs[loc] = true
		d.urls = append(d.urls, loc)
		if len(d.urls) >= maxSitemapURLs {
			break
		}
	}
	return nil
}

// locs returns the trimmed <loc> text of each child element named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// matchesPathPrefix reports whether rawURL's path is under prefix at a
// segment boundary: /docs matches /docs/ and /docs/intro but not
// /documentation.
func matchesPathPrefix(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(parsed.Path+"/", prefix)
}

// findSitemapURLs reads Sitemap directives from robots.txt, falling back to
// /sitemap.xml when there are none.
func (s *SitemapService) findSitemapURLs(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.sitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	ok, err := s.exists(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if ok {
		return []string{fallback}, nil
	}
	return nil, nil
}

func (s *SitemapService) sitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.fetch(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			sitemaps = append(sitemaps, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnreachable, err, "reading %s", robotsURL)
	}
	return sitemaps, nil
}

func (s *SitemapService) fetch(ctx context.Context, target string) (io.ReadCloser, error) {
	resp, err := s.do(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp, target); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (s *SitemapService) exists(ctx context.Context, target string) (bool, error) {
	resp, err := s.do(ctx, http.MethodHead, target)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (s *SitemapService) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, webrag.Errorf(webrag.EINVALID, "invalid sitemap URL %q", target)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnreachable, err, "%s %s", method, target)
	}
	return resp, nil
}
