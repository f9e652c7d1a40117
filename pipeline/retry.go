// Package pipeline implements the retrieval-augmented answering pipeline:
// indexing chunked pages, retrieving the chunks nearest to a question, and
// composing a grounded, cited answer. Session sequences the stages and
// owns the lifecycle of the active site index.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

// DefaultRetryDelay is the pause before retrying a transient failure.
const DefaultRetryDelay = time.Second

// retryTransient calls fn and, if it fails with a timeout or rate limit,
// calls it exactly once more after delay.
func retryTransient[T any](ctx context.Context, delay time.Duration, logger *slog.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !webrag.IsTransient(err) {
		return v, err
	}

	logger.Warn("retrying after transient failure", "op", op, "reason", webrag.ErrorReason(err), "delay", delay)

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-time.After(delay):
	}
	return fn(ctx)
}

// loggerOrDiscard returns l, or a logger that drops everything if l is nil.
func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
