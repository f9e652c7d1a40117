// Package goquery discovers same-site links in HTML using CSS selectors.
package goquery

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/webrag"
)

var _ webrag.LinkSelector = (*LinkSelector)(nil)

// SelectorConfig assigns a priority and source label to the links matched
// by a CSS selector.
type SelectorConfig struct {
	Selector string
	Priority webrag.LinkPriority
	Source   string
}

// DefaultSelectors cover the layout landmarks of ordinary websites.
var DefaultSelectors = []SelectorConfig{
	{
		Selector: `nav a[href], header a[href], [role="navigation"] a[href], .nav a[href], .navbar a[href], .menu a[href], aside a[href], .sidebar a[href]`,
		Priority: webrag.PriorityNavigation,
		Source:   "nav",
	},
	{
		Selector: `main a[href], article a[href], [role="main"] a[href], .content a[href], #content a[href]`,
		Priority: webrag.PriorityContent,
		Source:   "content",
	},
	{
		Selector: `footer a[href], .footer a[href], [role="contentinfo"] a[href]`,
		Priority: webrag.PriorityFooter,
		Source:   "footer",
	},
}

// skippedExtensions are resources that are not web pages.
var skippedExtensions = map[string]bool{
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".dmg": true, ".exe": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true, ".ico": true,
	".mp3": true, ".mp4": true, ".webm": true, ".mov": true,
	".css": true, ".js": true, ".json": true, ".xml": true, ".rss": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

// LinkSelector extracts links by selector priority. Any other same-host
// anchor becomes a fallback link, so pages built without semantic landmarks
// still get crawled.
type LinkSelector struct {
	Configs []SelectorConfig
}

// NewLinkSelector returns a LinkSelector using DefaultSelectors.
func NewLinkSelector() *LinkSelector {
	return &LinkSelector{Configs: DefaultSelectors}
}

// ExtractLinks returns same-host page links in document order of first
// occurrence. A URL matched by several selectors keeps its highest
// priority. Fragments, self-links, non-HTTP schemes and links to files are
// dropped.
func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]webrag.DiscoveredLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, webrag.Errorf(webrag.EINVALID, "invalid base URL: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, webrag.Errorf(webrag.EINVALID, "failed to parse HTML: %v", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(href); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	seen := make(map[string]int)
	var links []webrag.DiscoveredLink
	add := func(sel *goquery.Selection, priority webrag.LinkPriority, source string) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved := resolveURL(base, baseURL, href)
		if resolved == "" {
			return
		}
		link := webrag.DiscoveredLink{
			URL:      resolved,
			Priority: priority,
			Text:     strings.Join(strings.Fields(sel.Text()), " "),
			Source:   source,
		}
		if idx, ok := seen[resolved]; ok {
			if priority > links[idx].Priority {
				links[idx] = link
			}
			return
		}
		seen[resolved] = len(links)
		links = append(links, link)
	}

	for _, cfg := range s.Configs {
		doc.Find(cfg.Selector).Each(func(_ int, sel *goquery.Selection) {
			add(sel, cfg.Priority, cfg.Source)
		})
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		add(sel, webrag.PriorityFallback, "fallback")
	})

	return links, nil
}

// resolveURL resolves href against base and returns it without fragment.
// It returns "" for links that leave the host, point back at the page
// itself, use a non-HTTP scheme or name a file.
func resolveURL(base *url.URL, pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(resolved.Host, base.Host) {
		return ""
	}
	if skippedExtensions[strings.ToLower(path.Ext(resolved.Path))] {
		return ""
	}

	out := resolved.String()
	if page, err := url.Parse(pageURL); err == nil {
		page.Fragment = ""
		if out == page.String() {
			return ""
		}
	}
	return out
}

func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:", "ftp:"} {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}
