package mock

import (
	"context"

	"github.com/fwojciec/webrag"
)

var (
	_ webrag.Embedder    = (*Embedder)(nil)
	_ webrag.Generator   = (*Generator)(nil)
	_ webrag.VectorIndex = (*VectorIndex)(nil)
	_ webrag.VectorStore = (*VectorStore)(nil)
)

// Embedder is a mock implementation of webrag.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, text string) ([]float32, error)
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}

// Generator is a mock implementation of webrag.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, prompt *webrag.Prompt) (string, error)
}

func (g *Generator) Generate(ctx context.Context, prompt *webrag.Prompt) (string, error) {
	return g.GenerateFn(ctx, prompt)
}

// VectorIndex is a mock implementation of webrag.VectorIndex.
type VectorIndex struct {
	IDFn     func() string
	UpsertFn func(ctx context.Context, id string, vector []float32, payload *webrag.Chunk) error
	QueryFn  func(ctx context.Context, vector []float32, k int) ([]*webrag.RetrievedChunk, error)
	CountFn  func(ctx context.Context) (int, error)
	ClearFn  func(ctx context.Context) error
}

func (i *VectorIndex) ID() string {
	return i.IDFn()
}

func (i *VectorIndex) Upsert(ctx context.Context, id string, vector []float32, payload *webrag.Chunk) error {
	return i.UpsertFn(ctx, id, vector, payload)
}

func (i *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]*webrag.RetrievedChunk, error) {
	return i.QueryFn(ctx, vector, k)
}

func (i *VectorIndex) Count(ctx context.Context) (int, error) {
	return i.CountFn(ctx)
}

func (i *VectorIndex) Clear(ctx context.Context) error {
	return i.ClearFn(ctx)
}

// VectorStore is a mock implementation of webrag.VectorStore.
type VectorStore struct {
	CreateIndexFn func(ctx context.Context, name string) (webrag.VectorIndex, error)
	PublishFn     func(ctx context.Context, idx webrag.VectorIndex, site *webrag.Site) error
	ActiveIndexFn func(ctx context.Context) (webrag.VectorIndex, error)
	ActiveSiteFn  func(ctx context.Context) (*webrag.Site, error)
	DropIndexFn   func(ctx context.Context, idx webrag.VectorIndex) error
	ResetFn       func(ctx context.Context) error
}

func (s *VectorStore) CreateIndex(ctx context.Context, name string) (webrag.VectorIndex, error) {
	return s.CreateIndexFn(ctx, name)
}

func (s *VectorStore) Publish(ctx context.Context, idx webrag.VectorIndex, site *webrag.Site) error {
	return s.PublishFn(ctx, idx, site)
}

func (s *VectorStore) ActiveIndex(ctx context.Context) (webrag.VectorIndex, error) {
	return s.ActiveIndexFn(ctx)
}

func (s *VectorStore) ActiveSite(ctx context.Context) (*webrag.Site, error) {
	return s.ActiveSiteFn(ctx)
}

func (s *VectorStore) DropIndex(ctx context.Context, idx webrag.VectorIndex) error {
	return s.DropIndexFn(ctx, idx)
}

func (s *VectorStore) Reset(ctx context.Context) error {
	return s.ResetFn(ctx)
}
