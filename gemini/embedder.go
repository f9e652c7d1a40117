package gemini

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/webrag"
	"google.golang.org/genai"
)

// DefaultMaxInputChars keeps requests under the embedding model's input
// token limit.
const DefaultMaxInputChars = 8000

// Task types for asymmetric retrieval embeddings.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

var _ webrag.Embedder = (*Embedder)(nil)

// Embedder produces embeddings truncated to Dimension values.
type Embedder struct {
	client        *genai.Client
	Model         string
	Dimension     int
	TaskType      string
	MaxInputChars int
}

// NewEmbedder returns an Embedder using DefaultEmbeddingModel at
// webrag.DefaultDimension.
func NewEmbedder(client *genai.Client) *Embedder {
	return &Embedder{
		client:        client,
		Model:         DefaultEmbeddingModel,
		Dimension:     webrag.DefaultDimension,
		TaskType:      TaskRetrievalDocument,
		MaxInputChars: DefaultMaxInputChars,
	}
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "text to embed is empty")
	}

	config := &genai.EmbedContentConfig{TaskType: e.TaskType}
	if e.Dimension > 0 {
		dim := int32(e.Dimension)
		config.OutputDimensionality = &dim
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: Truncate(text, e.MaxInputChars)}}}},
		config,
	)
	if err != nil {
		return nil, TranslateError(ctx, webrag.EEMBEDDING, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonUnavailable, nil, "gemini returned no embedding")
	}
	return resp.Embeddings[0].Values, nil
}

// Truncate shortens text to at most max bytes on a rune boundary. A
// non-positive max leaves text unchanged.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
