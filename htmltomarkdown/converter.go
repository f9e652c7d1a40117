// Package htmltomarkdown renders extracted page content as Markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/webrag"
)

var _ webrag.Converter = (*Converter)(nil)

// removedTags carry no answerable text and are dropped from the output.
var removedTags = []string{"img", "picture", "svg", "nav", "form", "button"}

// Converter converts HTML to CommonMark with GFM tables.
type Converter struct {
	conv *converter.Converter
}

// NewConverter returns a Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	for _, tag := range removedTags {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}
	return &Converter{conv: conv}
}

// Convert transforms HTML into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, nil, "empty HTML input")
	}
	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", webrag.WrapError(webrag.ECRAWL, webrag.ReasonNoContent, err, "converting HTML to markdown")
	}
	return md, nil
}
