// Package readability pulls the article body out of a web page with
// go-readability. The crawler uses it when trafilatura finds nothing, which
// happens on short landing pages and heavily templated sites.
package readability

import (
	"strings"

	"github.com/fwojciec/webrag"
	"github.com/go-shiori/go-readability"
)

var _ webrag.Extractor = (*Extractor)(nil)

// Extractor finds a page's main article. It holds no state.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the page title and the article body as HTML. A page
// whose article holds no text fails with ReasonNoContent, so the crawler
// skips it instead of indexing an empty page.
func (e *Extractor) Extract(rawHTML string) (*webrag.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, err, "no article found")
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil, "article has no text")
	}

	return &webrag.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}
