package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.Generator = (*LoggingGenerator)(nil)

// LoggingGenerator logs generation calls.
type LoggingGenerator struct {
	next   webrag.Generator
	logger *slog.Logger
}

func NewLoggingGenerator(next webrag.Generator, logger *slog.Logger) *LoggingGenerator {
	return &LoggingGenerator{next: next, logger: logger}
}

func (g *LoggingGenerator) Generate(ctx context.Context, prompt *webrag.Prompt) (text string, err error) {
	defer func(begin time.Time) {
		var size int
		if prompt != nil {
			size = len(prompt.System) + len(prompt.User)
		}
		g.logger.Info("generate",
			"prompt_chars", size,
			"answer_chars", len(text),
			"duration", time.Since(begin),
			"reason", webrag.ErrorReason(err),
			"err", err,
		)
	}(time.Now())
	return g.next.Generate(ctx, prompt)
}
