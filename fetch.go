package webrag

import "context"

// Fetcher retrieves the HTML of a URL. Browser-backed implementations
// return the DOM after JavaScript has run.
type Fetcher interface {
	// Fetch returns the HTML body for url. Failures are ECRAWL errors
	// whose reason tells unreachable hosts from disallowed ones.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// ExtractResult holds the main content extracted from an HTML page.
type ExtractResult struct {
	Title string

	// ContentHTML is the readable body with navigation, footers and ads
	// stripped.
	ContentHTML string
}

// Extractor pulls the main content out of an HTML page.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// Converter renders clean HTML as Markdown.
type Converter interface {
	Convert(html string) (string, error)
}
