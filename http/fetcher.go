// Package http fetches static HTML pages and discovers page URLs from
// sitemaps over plain HTTP.
package http

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/webrag"
)

// DefaultFetchTimeout bounds a single page request.
const DefaultFetchTimeout = 10 * time.Second

// UserAgent identifies the crawler to servers.
const UserAgent = "webrag/1.0 (+https://github.com/fwojciec/webrag)"

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 10 << 20

var _ webrag.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML over HTTP without running JavaScript.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout. Defaults to DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithClient replaces the underlying HTTP client. Its timeout is
// overridden by WithTimeout.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher returns a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(f)
	}
	client := http.Client{}
	if f.client != nil {
		client = *f.client
	}
	client.Timeout = f.timeout
	f.client = &client
	return f
}

// Fetch returns the HTML body of url. Non-HTML responses fail with
// ReasonNoContent, 401/403 with ReasonDisallowed, 429 with
// ReasonRateLimited and anything else with ReasonUnreachable.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", webrag.Errorf(webrag.EINVALID, "invalid URL %q", url)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnreachable, err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if err := statusError(resp, url); err != nil {
		return "", err
	}
	if !isHTML(resp.Header.Get("Content-Type")) {
		return "", webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil,
			"unsupported content type %q for %s", resp.Header.Get("Content-Type"), url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnreachable, err, "reading %s", url)
	}
	return string(body), nil
}

// Close is a no-op; http.Client needs no cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// statusError types a non-200 response.
func statusError(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return webrag.WrapError(webrag.ECRAWL, webrag.ReasonDisallowed, nil, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode == http.StatusTooManyRequests:
		return webrag.WrapError(webrag.ECRAWL, webrag.ReasonRateLimited, nil, "HTTP %d for %s", resp.StatusCode, url)
	default:
		return webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnreachable, nil, "HTTP %d for %s", resp.StatusCode, url)
	}
}

// isHTML accepts HTML media types. A missing Content-Type is given the
// benefit of the doubt.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml" || strings.HasPrefix(mediaType, "text/plain")
}
