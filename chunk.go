package webrag

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Chunk is a bounded span of a page's text, the unit of embedding and
// retrieval. Chunks are immutable once indexed.
type Chunk struct {
	ID            string    `json:"id"`
	SourceURL     string    `json:"sourceUrl"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	SequenceIndex int       `json:"sequenceIndex"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return Errorf(EINVALID, "chunk ID required")
	}
	if c.SourceURL == "" {
		return Errorf(EINVALID, "chunk source URL required")
	}
	if c.SequenceIndex < 0 {
		return Errorf(EINVALID, "chunk sequence index must not be negative")
	}
	return nil
}

// ChunkID derives the stable identifier of the chunk at sequenceIndex of
// the page at sourceURL.
func ChunkID(sourceURL string, sequenceIndex int) string {
	h := xxhash.Sum64String(fmt.Sprintf("%s#%d", sourceURL, sequenceIndex))
	return fmt.Sprintf("%016x", h)
}

// RetrievedChunk is a chunk matched by a query, with its similarity score.
type RetrievedChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float32 `json:"score"`
}

// SortRetrieved orders results by descending score. Ties go to the lower
// sequence index, then to the lexically smaller source URL.
func SortRetrieved(results []*RetrievedChunk) {
	slices.SortStableFunc(results, func(a, b *RetrievedChunk) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.SequenceIndex, b.Chunk.SequenceIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.SourceURL, b.Chunk.SourceURL)
	})
}
