package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/webrag"
)

// DefaultMaxConsecutiveFailures is how many chunks in a row may fail to
// embed before the embedder is considered down.
const DefaultMaxConsecutiveFailures = 10

// Indexer embeds draft chunks into a fresh index and publishes it once
// the build completes.
type Indexer struct {
	Store    webrag.VectorStore
	Embedder webrag.Embedder

	// MaxTextLength is the longest chunk text, in runes, the embedder
	// accepts. Zero means no limit.
	MaxTextLength int

	MaxConsecutiveFailures int
	RetryDelay             time.Duration
	Logger                 *slog.Logger
}

// BuildResult reports the outcome of a successful build.
type BuildResult struct {
	Index   webrag.VectorIndex
	Indexed int
	Skipped int
}

// Build embeds drafts into a new index and publishes it with site.
// Chunks that are empty, too long, or fail to embed are skipped. The build
// aborts when the embedder is unreachable, returns vectors of the wrong
// dimension, or the store fails; an aborted build is never published.
// If no chunk survives, Build returns EINDEX.
func (ix *Indexer) Build(ctx context.Context, site *webrag.Site, drafts []*webrag.Chunk) (*BuildResult, error) {
	logger := loggerOrDiscard(ix.Logger)
	maxFailures := ix.MaxConsecutiveFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxConsecutiveFailures
	}
	delay := ix.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	idx, err := ix.Store.CreateIndex(ctx, site.Name)
	if err != nil {
		return nil, storeError(err, "creating index")
	}

	result := &BuildResult{Index: idx}
	consecutive := 0
	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			ix.drop(idx, logger)
			return nil, err
		}

		if strings.TrimSpace(draft.Text) == "" {
			logger.Warn("skipping empty chunk", "chunk", draft.ID, "url", draft.SourceURL)
			result.Skipped++
			continue
		}
		if ix.MaxTextLength > 0 && utf8.RuneCountInString(draft.Text) > ix.MaxTextLength {
			logger.Warn("skipping oversized chunk", "chunk", draft.ID, "url", draft.SourceURL,
				"length", utf8.RuneCountInString(draft.Text), "max", ix.MaxTextLength)
			result.Skipped++
			continue
		}

		vec, err := retryTransient(ctx, delay, logger, "embed", func(ctx context.Context) ([]float32, error) {
			return ix.Embedder.Embed(ctx, draft.Text)
		})
		if err != nil {
			if ctx.Err() != nil {
				ix.drop(idx, logger)
				return nil, ctx.Err()
			}
			if isFatalEmbedError(err) {
				ix.drop(idx, logger)
				return nil, err
			}
			consecutive++
			result.Skipped++
			logger.Warn("skipping chunk that failed to embed", "chunk", draft.ID, "url", draft.SourceURL, "err", err)
			if consecutive >= maxFailures {
				ix.drop(idx, logger)
				return nil, webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonUnavailable, err,
					"embedding failed for %d chunks in a row", consecutive)
			}
			continue
		}
		consecutive = 0

		if err := idx.Upsert(ctx, draft.ID, vec, draft); err != nil {
			ix.drop(idx, logger)
			return nil, storeError(err, "storing chunk %s", draft.ID)
		}
		result.Indexed++
	}

	if result.Indexed == 0 {
		ix.drop(idx, logger)
		return nil, webrag.Errorf(webrag.EINDEX, "no chunks indexed (%d skipped)", result.Skipped)
	}

	site.Chunks = result.Indexed
	site.Skipped = result.Skipped
	if err := ix.Store.Publish(ctx, idx, site); err != nil {
		ix.drop(idx, logger)
		return nil, storeError(err, "publishing index")
	}

	logger.Info("index published", "site", site.Name, "indexed", result.Indexed, "skipped", result.Skipped)
	return result, nil
}

// Reset drops every index, so nothing from a previous site can be
// retrieved.
func (ix *Indexer) Reset(ctx context.Context) error {
	if err := ix.Store.Reset(ctx); err != nil {
		return storeError(err, "resetting store")
	}
	return nil
}

// drop discards an unpublished index. It runs on a fresh context because
// the build's context may already be canceled.
func (ix *Indexer) drop(idx webrag.VectorIndex, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ix.Store.DropIndex(ctx, idx); err != nil {
		logger.Error("failed to drop partial index", "index", idx.ID(), "err", err)
	}
}

// storeError types a vector store failure as EINDEX unless the store
// already did, or the context ended.
func storeError(err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if webrag.ErrorCode(err) == webrag.EINDEX {
		return err
	}
	return webrag.WrapError(webrag.EINDEX, webrag.ReasonUnavailable, err, format, args...)
}

// isFatalEmbedError reports whether err means no further chunk can embed.
func isFatalEmbedError(err error) bool {
	switch webrag.ErrorReason(err) {
	case webrag.ReasonUnreachable, webrag.ReasonDimensionMismatch:
		return true
	}
	return false
}
