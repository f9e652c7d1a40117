package webrag

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Chunking defaults.
const (
	DefaultMaxChunkSize = 1000
	DefaultChunkOverlap = 200
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\f\v]+`)
	blankLinesRe      = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// Chunker splits pages into fixed-size overlapping windows of text.
// Sizes are measured in runes.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// NewChunker returns a Chunker. It requires 0 <= overlap < maxChunkSize.
func NewChunker(maxChunkSize, overlap int) (*Chunker, error) {
	if maxChunkSize <= 0 {
		return nil, Errorf(EINVALID, "max chunk size must be positive, got %d", maxChunkSize)
	}
	if overlap < 0 || overlap >= maxChunkSize {
		return nil, Errorf(EINVALID, "overlap must be in [0, %d), got %d", maxChunkSize, overlap)
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}, nil
}

// Chunk produces draft chunks (no embeddings) for pages, in page order.
// Pages with no text after normalization are skipped.
func (c *Chunker) Chunk(pages []*Page) []*Chunk {
	var chunks []*Chunk
	for _, page := range pages {
		if page == nil {
			continue
		}
		chunks = append(chunks, c.chunkPage(page)...)
	}
	return chunks
}

func (c *Chunker) chunkPage(page *Page) []*Chunk {
	runes := []rune(NormalizeText(page.Content))
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := c.maxChunkSize - c.overlap
	var chunks []*Chunk
	for start, seq := 0, 0; ; start, seq = start+step, seq+1 {
		end := min(start+c.maxChunkSize, n)
		chunks = append(chunks, &Chunk{
			ID:            ChunkID(page.URL, seq),
			SourceURL:     page.URL,
			Title:         page.Title,
			Text:          string(runes[start:end]),
			SequenceIndex: seq,
		})
		if end == n {
			break
		}
	}
	return chunks
}

// NormalizeText puts text into NFC form, unifies line endings, collapses
// runs of horizontal whitespace and blank lines, and trims the result.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
