// Package lru caches embeddings in memory with an expiring LRU.
package lru

import (
	"context"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/webrag"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defaults.
const (
	DefaultSize = 4096
	DefaultTTL  = time.Hour
)

var _ webrag.Embedder = (*CachingEmbedder)(nil)

// CachingEmbedder returns cached vectors for texts it has embedded before.
// Identical chunks across pages and repeated questions hit the cache.
type CachingEmbedder struct {
	embedder webrag.Embedder
	cache    *expirable.LRU[uint64, []float32]
}

// NewCachingEmbedder wraps embedder with a cache of size entries that
// expire after ttl. Non-positive values select the defaults.
func NewCachingEmbedder(embedder webrag.Embedder, size int, ttl time.Duration) *CachingEmbedder {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingEmbedder{
		embedder: embedder,
		cache:    expirable.NewLRU[uint64, []float32](size, nil, ttl),
	}
}

// Embed returns the cached embedding of text, computing it on a miss.
// Failures are not cached.
func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := xxhash.Sum64String(text)
	if vec, ok := c.cache.Get(key); ok {
		return slices.Clone(vec), nil
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, slices.Clone(vec))
	return vec, nil
}

// Len returns the number of cached embeddings.
func (c *CachingEmbedder) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *CachingEmbedder) Purge() {
	c.cache.Purge()
}
