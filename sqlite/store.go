package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Compile-time interface verification.
var (
	_ webrag.VectorStore = (*VectorStore)(nil)
	_ webrag.VectorIndex = (*Index)(nil)
)

// VectorStore implements webrag.VectorStore using SQLite.
type VectorStore struct {
	db        *DB
	dimension int
}

// NewVectorStore creates a new VectorStore for vectors of the given dimension.
func NewVectorStore(db *DB, dimension int) *VectorStore {
	return &VectorStore{db: db, dimension: dimension}
}

// CreateIndex allocates a new, unpublished index.
func (s *VectorStore) CreateIndex(ctx context.Context, name string) (webrag.VectorIndex, error) {
	if name == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "index name required")
	}

	idx := &Index{db: s.db, id: uuid.New().String(), name: name, dimension: s.dimension}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO indexes (id, name, dimension, published, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, idx.id, idx.name, idx.dimension, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, storeError(err, "create index")
	}
	return idx, nil
}

// Publish makes idx the active index, records site for it, and drops the
// previously published index in the same transaction.
func (s *VectorStore) Publish(ctx context.Context, idx webrag.VectorIndex, site *webrag.Site) error {
	if err := site.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return storeError(err, "begin publish")
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM indexes WHERE id = ?`, idx.ID()).Scan(&exists)
	if err != nil {
		return storeError(err, "publish")
	}
	if exists == 0 {
		return webrag.Errorf(webrag.ENOTFOUND, "index %q not found", idx.ID())
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM indexes WHERE published = 1 AND id != ?`, idx.ID()); err != nil {
		return storeError(err, "drop previous index")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE indexes SET published = 1 WHERE id = ?`, idx.ID()); err != nil {
		return storeError(err, "publish")
	}

	if site.ID == "" {
		site.ID = uuid.New().String()
	}
	if site.IndexedAt.IsZero() {
		site.IndexedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sites (index_id, id, url, name, pages, chunks, skipped, bytes, tokens, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, idx.ID(), site.ID, site.URL, site.Name, site.Pages, site.Chunks, site.Skipped, site.Bytes, site.Tokens,
		site.IndexedAt.Format(time.RFC3339))
	if err != nil {
		return storeError(err, "save site")
	}

	if err := tx.Commit(); err != nil {
		return storeError(err, "commit publish")
	}
	return nil
}

// ActiveIndex returns the published index.
func (s *VectorStore) ActiveIndex(ctx context.Context) (webrag.VectorIndex, error) {
	idx := &Index{db: s.db}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, dimension FROM indexes WHERE published = 1
	`).Scan(&idx.id, &idx.name, &idx.dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, webrag.Errorf(webrag.ENOTFOUND, "no published index")
	}
	if err != nil {
		return nil, storeError(err, "find active index")
	}
	if idx.dimension != s.dimension {
		return nil, webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonDimensionMismatch, nil,
			"published index has %d dimensions, embedder produces %d", idx.dimension, s.dimension)
	}
	return idx, nil
}

// ActiveSite returns the site recorded for the published index.
func (s *VectorStore) ActiveSite(ctx context.Context) (*webrag.Site, error) {
	var site webrag.Site
	var indexedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.url, s.name, s.pages, s.chunks, s.skipped, s.bytes, s.tokens, s.indexed_at
		FROM sites s
		JOIN indexes i ON i.id = s.index_id
		WHERE i.published = 1
	`).Scan(&site.ID, &site.URL, &site.Name, &site.Pages, &site.Chunks, &site.Skipped,
		&site.Bytes, &site.Tokens, &indexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, webrag.Errorf(webrag.ENOTFOUND, "no published site")
	}
	if err != nil {
		return nil, storeError(err, "find active site")
	}

	site.IndexedAt, err = parseRFC3339(indexedAt, "indexed_at")
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// DropIndex removes an unpublished index and its chunks.
func (s *VectorStore) DropIndex(ctx context.Context, idx webrag.VectorIndex) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM indexes WHERE id = ? AND published = 0`, idx.ID())
	if err != nil {
		return storeError(err, "drop index")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(err, "drop index")
	}
	if n == 0 {
		var published int
		err := s.db.QueryRowContext(ctx, `SELECT published FROM indexes WHERE id = ?`, idx.ID()).Scan(&published)
		if err == nil && published == 1 {
			return webrag.Errorf(webrag.ECONFLICT, "index %q is published", idx.ID())
		}
	}
	return nil
}

// Reset drops every index, published or not.
func (s *VectorStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM indexes`); err != nil {
		return storeError(err, "reset")
	}
	return nil
}

// Index is a set of chunks stored under one row of the indexes table.
type Index struct {
	db        *DB
	id        string
	name      string
	dimension int
}

// ID returns the index identifier.
func (i *Index) ID() string { return i.id }

// Name returns the name the index was created with.
func (i *Index) Name() string { return i.name }

// Upsert stores payload with vector as its embedding, replacing any chunk
// stored under the same id.
func (i *Index) Upsert(ctx context.Context, id string, vector []float32, payload *webrag.Chunk) error {
	if id == "" {
		return webrag.Errorf(webrag.EINVALID, "chunk ID required")
	}
	if len(vector) != i.dimension {
		return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonDimensionMismatch, nil,
			"vector has %d dimensions, index expects %d", len(vector), i.dimension)
	}

	_, err := i.db.ExecContext(ctx, `
		INSERT INTO chunks (index_id, id, source_url, title, text, sequence_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (index_id, id) DO UPDATE SET
			source_url = excluded.source_url,
			title = excluded.title,
			text = excluded.text,
			sequence_index = excluded.sequence_index,
			embedding = excluded.embedding
	`, i.id, id, payload.SourceURL, payload.Title, payload.Text, payload.SequenceIndex, pgvector.NewVector(vector))
	if err != nil {
		return storeError(err, "upsert chunk")
	}
	return nil
}

// Query scores every chunk of the index against vector by cosine
// similarity and returns the best k.
func (i *Index) Query(ctx context.Context, vector []float32, k int) ([]*webrag.RetrievedChunk, error) {
	if k <= 0 {
		k = webrag.DefaultTopK
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT id, source_url, title, text, sequence_index, embedding
		FROM chunks
		WHERE index_id = ?
	`, i.id)
	if err != nil {
		return nil, storeError(err, "query chunks")
	}
	defer rows.Close()

	var results []*webrag.RetrievedChunk
	for rows.Next() {
		var c webrag.Chunk
		var emb pgvector.Vector
		if err := rows.Scan(&c.ID, &c.SourceURL, &c.Title, &c.Text, &c.SequenceIndex, &emb); err != nil {
			return nil, storeError(err, "scan chunk")
		}
		c.Embedding = emb.Slice()
		results = append(results, &webrag.RetrievedChunk{
			Chunk: &c,
			Score: webrag.CosineSimilarity(vector, c.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "query chunks")
	}

	webrag.SortRetrieved(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of chunks in the index.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE index_id = ?`, i.id).Scan(&n)
	if err != nil {
		return 0, storeError(err, "count chunks")
	}
	return n, nil
}

// Clear removes every chunk from the index.
func (i *Index) Clear(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM chunks WHERE index_id = ?`, i.id); err != nil {
		return storeError(err, "clear index")
	}
	return nil
}

// storeError classifies a database failure as an index error.
func storeError(err error, op string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return webrag.WrapError(webrag.EINDEX, webrag.ReasonUnavailable, err, "%s failed", op)
}

// parseRFC3339 parses an RFC3339 timestamp, naming the field on failure.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}
