// Package memory provides an in-process implementation of
// webrag.VectorStore using brute-force cosine similarity. It suits tests
// and one-shot sessions where persisting the index is not needed.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/google/uuid"
)

var (
	_ webrag.VectorStore = (*Store)(nil)
	_ webrag.VectorIndex = (*Index)(nil)
)

// Store keeps indexes in memory. It is safe for concurrent use.
type Store struct {
	dimension int

	mu      sync.RWMutex
	indexes map[string]*Index
	active  *Index
	site    *webrag.Site
}

// NewStore returns an empty Store whose indexes hold vectors of the given
// dimension.
func NewStore(dimension int) *Store {
	return &Store{
		dimension: dimension,
		indexes:   make(map[string]*Index),
	}
}

// CreateIndex allocates a new, unpublished index.
func (s *Store) CreateIndex(_ context.Context, name string) (webrag.VectorIndex, error) {
	idx := &Index{
		id:        uuid.NewString(),
		name:      name,
		dimension: s.dimension,
		chunks:    make(map[string]*webrag.Chunk),
	}
	s.mu.Lock()
	s.indexes[idx.id] = idx
	s.mu.Unlock()
	return idx, nil
}

// Publish makes idx the active index and drops the previous one.
func (s *Store) Publish(_ context.Context, idx webrag.VectorIndex, site *webrag.Site) error {
	if err := site.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.indexes[idx.ID()]
	if !ok {
		return webrag.Errorf(webrag.ENOTFOUND, "index %q not found", idx.ID())
	}
	if s.active != nil && s.active != next {
		delete(s.indexes, s.active.id)
	}
	s.active = next
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	if site.IndexedAt.IsZero() {
		site.IndexedAt = time.Now().UTC()
	}
	cp := *site
	s.site = &cp
	return nil
}

// ActiveIndex returns the published index.
func (s *Store) ActiveIndex(_ context.Context) (webrag.VectorIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil, webrag.Errorf(webrag.ENOTFOUND, "no published index")
	}
	return s.active, nil
}

// ActiveSite returns the site recorded at publish time.
func (s *Store) ActiveSite(_ context.Context) (*webrag.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.site == nil {
		return nil, webrag.Errorf(webrag.ENOTFOUND, "no published site")
	}
	cp := *s.site
	return &cp, nil
}

// DropIndex removes an unpublished index.
func (s *Store) DropIndex(_ context.Context, idx webrag.VectorIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.id == idx.ID() {
		return webrag.Errorf(webrag.ECONFLICT, "index %q is published", idx.ID())
	}
	delete(s.indexes, idx.ID())
	return nil
}

// Reset drops every index.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes = make(map[string]*Index)
	s.active = nil
	s.site = nil
	return nil
}

// Index is a set of chunks keyed by chunk ID.
type Index struct {
	id        string
	name      string
	dimension int

	mu     sync.RWMutex
	chunks map[string]*webrag.Chunk
}

// ID returns the index identifier.
func (i *Index) ID() string { return i.id }

// Name returns the name the index was created with.
func (i *Index) Name() string { return i.name }

// Upsert stores a copy of payload with vector as its embedding.
func (i *Index) Upsert(_ context.Context, id string, vector []float32, payload *webrag.Chunk) error {
	if id == "" {
		return webrag.Errorf(webrag.EINVALID, "chunk ID required")
	}
	if len(vector) != i.dimension {
		return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonDimensionMismatch, nil,
			"vector has %d dimensions, index expects %d", len(vector), i.dimension)
	}

	c := *payload
	c.ID = id
	c.Embedding = append([]float32(nil), vector...)

	i.mu.Lock()
	i.chunks[id] = &c
	i.mu.Unlock()
	return nil
}

// Query scores every chunk against vector and returns the best k.
func (i *Index) Query(_ context.Context, vector []float32, k int) ([]*webrag.RetrievedChunk, error) {
	if k <= 0 {
		k = webrag.DefaultTopK
	}

	i.mu.RLock()
	results := make([]*webrag.RetrievedChunk, 0, len(i.chunks))
	for _, c := range i.chunks {
		cp := *c
		results = append(results, &webrag.RetrievedChunk{
			Chunk: &cp,
			Score: webrag.CosineSimilarity(vector, c.Embedding),
		})
	}
	i.mu.RUnlock()

	webrag.SortRetrieved(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of chunks.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.chunks), nil
}

// Clear removes every chunk.
func (i *Index) Clear(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.chunks = make(map[string]*webrag.Chunk)
	return nil
}
