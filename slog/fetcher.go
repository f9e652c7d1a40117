package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

var _ webrag.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher logs every page fetch with its size and duration.
type LoggingFetcher struct {
	next   webrag.Fetcher
	logger *slog.Logger
	name   string
}

func NewLoggingFetcher(next webrag.Fetcher, name string, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger, name: name}
}

func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Debug("fetch",
			"fetcher", f.name,
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
