package pipeline_test

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/memory"
	"github.com/fwojciec/webrag/mock"
	"github.com/fwojciec/webrag/pipeline"
)

// testRetryDelay keeps retry pauses out of test run time.
const testRetryDelay = time.Millisecond

// keywords define the axes of the test embedding space.
var keywords = []string{"apple", "banana", "cherry"}

// keywordEmbedder embeds text as keyword counts, so similarity is
// predictable. It counts its calls.
func keywordEmbedder(calls *atomic.Int64) *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, text string) ([]float32, error) {
			if calls != nil {
				calls.Add(1)
			}
			lower := strings.ToLower(text)
			vec := make([]float32, len(keywords))
			for i, k := range keywords {
				vec[i] = float32(strings.Count(lower, k))
			}
			return vec, nil
		},
	}
}

func draft(url string, seq int, text string) *webrag.Chunk {
	return &webrag.Chunk{
		ID:            webrag.ChunkID(url, seq),
		SourceURL:     url,
		Title:         "Page",
		Text:          text,
		SequenceIndex: seq,
	}
}

func testSite(url string) *webrag.Site {
	name, _ := webrag.SiteName(url)
	return &webrag.Site{URL: url, Name: name}
}

func newIndexer(store webrag.VectorStore, embedder webrag.Embedder) *pipeline.Indexer {
	return &pipeline.Indexer{
		Store:      store,
		Embedder:   embedder,
		RetryDelay: testRetryDelay,
	}
}

func newStore() *memory.Store {
	return memory.NewStore(len(keywords))
}
