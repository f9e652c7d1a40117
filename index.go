package webrag

import (
	"context"
	"math"
	"net/url"
	"strings"
	"time"
)

// DefaultTopK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultTopK = 5

// VectorIndex holds the chunks of one site build, searchable by cosine
// similarity.
type VectorIndex interface {
	// ID returns the store-assigned identifier of the index.
	ID() string

	// Upsert stores payload under id with the given vector, replacing any
	// chunk already stored under id.
	Upsert(ctx context.Context, id string, vector []float32, payload *Chunk) error

	// Query returns at most k chunks ordered as SortRetrieved orders them.
	Query(ctx context.Context, vector []float32, k int) ([]*RetrievedChunk, error)

	// Count returns the number of chunks in the index.
	Count(ctx context.Context) (int, error)

	// Clear removes every chunk from the index.
	Clear(ctx context.Context) error
}

// VectorStore manages the lifecycle of indexes. Exactly one index, the
// published one, is visible to queries at any time.
type VectorStore interface {
	// CreateIndex allocates a new, unpublished index.
	CreateIndex(ctx context.Context, name string) (VectorIndex, error)

	// Publish makes idx the active index and records site as its
	// description. The previously active index is dropped.
	Publish(ctx context.Context, idx VectorIndex, site *Site) error

	// ActiveIndex returns the published index.
	// Returns ENOTFOUND if nothing has been published.
	ActiveIndex(ctx context.Context) (VectorIndex, error)

	// ActiveSite returns the description of the published index.
	// Returns ENOTFOUND if nothing has been published.
	ActiveSite(ctx context.Context) (*Site, error)

	// DropIndex removes an unpublished index.
	DropIndex(ctx context.Context, idx VectorIndex) error

	// Reset drops every index, published or not.
	Reset(ctx context.Context) error
}

// Site describes the website behind the active index.
type Site struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Pages     int       `json:"pages"`
	Chunks    int       `json:"chunks"`
	Skipped   int       `json:"skipped"`
	Bytes     int       `json:"bytes"`
	Tokens    int       `json:"tokens"`
	IndexedAt time.Time `json:"indexedAt"`
}

// Validate returns an error if the site contains invalid fields.
func (s *Site) Validate() error {
	if s.URL == "" {
		return Errorf(EINVALID, "site URL required")
	}
	if s.Name == "" {
		return Errorf(EINVALID, "site name required")
	}
	return nil
}

// SiteName derives an index name from a site URL: its host with dots
// replaced by underscores.
func SiteName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", Errorf(EINVALID, "invalid site URL %q: %v", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "site URL must be http or https: %q", rawURL)
	}
	if u.Host == "" {
		return "", Errorf(EINVALID, "site URL has no host: %q", rawURL)
	}
	return strings.ReplaceAll(u.Host, ".", "_"), nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is a zero vector or their lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
