package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webrag"
)

var (
	_ webrag.VectorStore = (*LoggingVectorStore)(nil)
	_ webrag.VectorIndex = (*LoggingVectorIndex)(nil)
)

// LoggingVectorStore logs index lifecycle operations. Indexes it returns
// are wrapped in LoggingVectorIndex.
type LoggingVectorStore struct {
	next   webrag.VectorStore
	logger *slog.Logger
}

func NewLoggingVectorStore(next webrag.VectorStore, logger *slog.Logger) *LoggingVectorStore {
	return &LoggingVectorStore{next: next, logger: logger}
}

func (s *LoggingVectorStore) CreateIndex(ctx context.Context, name string) (idx webrag.VectorIndex, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("create index",
			"name", name,
			"index", indexID(idx),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	idx, err = s.next.CreateIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.wrap(idx), nil
}

func (s *LoggingVectorStore) Publish(ctx context.Context, idx webrag.VectorIndex, site *webrag.Site) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("publish index",
			"index", idx.ID(),
			"site", site.URL,
			"chunks", site.Chunks,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Publish(ctx, idx, site)
}

func (s *LoggingVectorStore) ActiveIndex(ctx context.Context) (idx webrag.VectorIndex, err error) {
	idx, err = s.next.ActiveIndex(ctx)
	if err != nil {
		if webrag.ErrorCode(err) != webrag.ENOTFOUND {
			s.logger.Warn("active index", "err", err)
		}
		return nil, err
	}
	return s.wrap(idx), nil
}

func (s *LoggingVectorStore) ActiveSite(ctx context.Context) (*webrag.Site, error) {
	return s.next.ActiveSite(ctx)
}

func (s *LoggingVectorStore) DropIndex(ctx context.Context, idx webrag.VectorIndex) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("drop index",
			"index", idx.ID(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DropIndex(ctx, idx)
}

func (s *LoggingVectorStore) Reset(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("reset store",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Reset(ctx)
}

func (s *LoggingVectorStore) wrap(idx webrag.VectorIndex) webrag.VectorIndex {
	if l, ok := idx.(*LoggingVectorIndex); ok {
		return l
	}
	return &LoggingVectorIndex{next: idx, logger: s.logger}
}

func indexID(idx webrag.VectorIndex) string {
	if idx == nil {
		return ""
	}
	return idx.ID()
}

// LoggingVectorIndex logs queries and failed writes. Successful upserts
// are too frequent to log individually.
type LoggingVectorIndex struct {
	next   webrag.VectorIndex
	logger *slog.Logger
}

func (i *LoggingVectorIndex) ID() string {
	return i.next.ID()
}

func (i *LoggingVectorIndex) Upsert(ctx context.Context, id string, vector []float32, payload *webrag.Chunk) error {
	err := i.next.Upsert(ctx, id, vector, payload)
	if err != nil {
		i.logger.Warn("upsert", "index", i.next.ID(), "chunk", id, "err", err)
	}
	return err
}

func (i *LoggingVectorIndex) Query(ctx context.Context, vector []float32, k int) (results []*webrag.RetrievedChunk, err error) {
	defer func(begin time.Time) {
		var top float32
		if len(results) > 0 {
			top = results[0].Score
		}
		i.logger.Debug("query",
			"index", i.next.ID(),
			"k", k,
			"results", len(results),
			"top_score", top,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.Query(ctx, vector, k)
}

func (i *LoggingVectorIndex) Count(ctx context.Context) (int, error) {
	return i.next.Count(ctx)
}

func (i *LoggingVectorIndex) Clear(ctx context.Context) error {
	return i.next.Clear(ctx)
}
