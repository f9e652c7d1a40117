// Package rod fetches pages through a headless Chrome browser so that
// JavaScript-rendered content is visible to extraction.
package rod

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds navigation and load of a single page.
const DefaultFetchTimeout = 10 * time.Second

var _ webrag.Fetcher = (*Fetcher)(nil)

// Fetcher returns the DOM of a page after it has loaded. It is safe for
// concurrent use; each fetch runs in its own tab.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
	recycle int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-page timeout. Defaults to DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRecycleAfter restarts the browser after n pages.
func WithRecycleAfter(n int64) Option {
	return func(f *Fetcher) {
		f.recycle = n
	}
}

// NewFetcher launches a headless browser. Close must be called to stop it.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{timeout: DefaultFetchTimeout, recycle: DefaultMaxPages}
	for _, opt := range opts {
		opt(f)
	}
	m, err := NewBrowserManager(WithMaxPages(f.recycle))
	if err != nil {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnavailable, err, "starting browser")
	}
	f.manager = m
	return f, nil
}

// Fetch navigates a new tab to url and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	browser := f.manager.Browser()
	if browser == nil {
		return "", webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnavailable, nil, "browser is closed")
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnavailable, err, "opening tab")
	}
	defer func() {
		_ = page.Close()
		f.manager.IncrementPageCount()
	}()

	page = page.Context(ctx).Timeout(f.timeout)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return "", pageError(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", pageError(ctx, url, err)
	}
	html, err := page.HTML()
	if err != nil {
		return "", pageError(ctx, url, err)
	}
	return html, nil
}

// Close stops the browser. It is safe to call more than once.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// LauncherPID returns the browser launcher's process id.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

func pageError(ctx context.Context, url string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return webrag.WrapError(webrag.ECRAWL, webrag.ReasonTimeout, err, "rendering %s", url)
	}
	return webrag.WrapError(webrag.ECRAWL, webrag.ReasonUnreachable, err, "rendering %s", url)
}
