package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/webrag"
)

// Retriever finds the chunks of the active index nearest to a query.
type Retriever struct {
	Store      webrag.VectorStore
	Embedder   webrag.Embedder
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Retrieve returns at most k chunks ordered by descending similarity.
// k <= 0 means webrag.DefaultTopK. With no published index the result is
// empty, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]*webrag.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "query required")
	}
	if k <= 0 {
		k = webrag.DefaultTopK
	}
	delay := r.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	logger := loggerOrDiscard(r.Logger)

	idx, err := r.Store.ActiveIndex(ctx)
	if webrag.ErrorCode(err) == webrag.ENOTFOUND {
		return []*webrag.RetrievedChunk{}, nil
	} else if err != nil {
		return nil, err
	}

	vec, err := retryTransient(ctx, delay, logger, "embed query", func(ctx context.Context) ([]float32, error) {
		return r.Embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	results, err := idx.Query(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	webrag.SortRetrieved(results)
	if len(results) > k {
		results = results[:k]
	}
	logger.Debug("retrieved chunks", "query", query, "k", k, "found", len(results))
	return results, nil
}
