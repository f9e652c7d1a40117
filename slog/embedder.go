package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder logs embedding calls at debug level and failures at
// warn level.
type LoggingEmbedder struct {
	next   webrag.Embedder
	logger *slog.Logger
}

func NewLoggingEmbedder(next webrag.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

func (e *LoggingEmbedder) Embed(ctx context.Context, text string) (vec []float32, err error) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		e.logger.Log(ctx, level, "embed",
			"chars", len(text),
			"dimension", len(vec),
			"duration", time.Since(begin),
			"reason", webrag.ErrorReason(err),
			"err", err,
		)
	}(time.Now())
	return e.next.Embed(ctx, text)
}
