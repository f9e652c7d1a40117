// Package trafilatura extracts the main content of a web page with
// go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/webrag"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ webrag.Extractor = (*Extractor)(nil)

// Extractor strips boilerplate from a page. When trafilatura finds no
// content and Fallback is set, the page is handed to Fallback instead.
type Extractor struct {
	Fallback webrag.Extractor
}

// NewExtractor returns an Extractor with the given fallback, which may be nil.
func NewExtractor(fallback webrag.Extractor) *Extractor {
	return &Extractor{Fallback: fallback}
}

// Extract returns the page title and the readable body as HTML.
func (e *Extractor) Extract(rawHTML string) (*webrag.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback: true,
	})
	if err != nil || result == nil || result.ContentNode == nil || strings.TrimSpace(result.ContentText) == "" {
		if e.Fallback != nil {
			return e.Fallback.Extract(rawHTML)
		}
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, err, "no main content found")
	}

	contentHTML, err := renderNode(result.ContentNode)
	if err != nil {
		return nil, webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, err, "rendering content")
	}
	return &webrag.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
