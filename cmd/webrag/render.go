package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/crawl"
)

// maxSourceURL bounds the width of source URLs in answer footers.
const maxSourceURL = 72

// Renderer formats answers and site summaries. Styles degrade to plain
// text when the output is not a terminal.
type Renderer struct {
	heading lipgloss.Style
	muted   lipgloss.Style
	marker  lipgloss.Style
	warn    lipgloss.Style
}

// NewRenderer returns a Renderer that detects color support on w.
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		heading: r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		marker:  r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Answer writes the answer text followed by the numbered source list.
// The text already carries numbered markers.
func (r *Renderer) Answer(w io.Writer, answer *webrag.Answer) {
	text := answer.Text
	if !answer.Grounded {
		fmt.Fprintln(w, r.warn.Render(text))
		return
	}
	fmt.Fprintln(w, strings.TrimSpace(text))
	if len(answer.Citations) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.heading.Render("Sources"))
	for i, c := range answer.Citations {
		label := c.Title
		if label == "" {
			label = c.SourceURL
		}
		fmt.Fprintf(w, "%s %s %s\n",
			r.marker.Render(fmt.Sprintf("[%d]", i+1)),
			label,
			r.muted.Render(crawl.TruncateURL(c.SourceURL, maxSourceURL)),
		)
	}
}

// Site writes a summary of an indexed site.
func (r *Renderer) Site(w io.Writer, site *webrag.Site) {
	fmt.Fprintln(w, r.heading.Render(site.URL))
	fmt.Fprintf(w, "  %d pages, %d chunks", site.Pages, site.Chunks)
	if site.Skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", site.Skipped)
	}
	fmt.Fprintln(w)
	stats := crawl.FormatBytes(site.Bytes)
	if site.Tokens > 0 {
		stats += ", " + crawl.FormatTokens(site.Tokens)
	}
	fmt.Fprintf(w, "  %s\n", stats)
	fmt.Fprintln(w, r.muted.Render("  indexed "+site.IndexedAt.Local().Format("2006-01-02 15:04")))
}
