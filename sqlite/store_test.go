package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func testChunk(url string, seq int, text string) *webrag.Chunk {
	return &webrag.Chunk{
		ID:            webrag.ChunkID(url, seq),
		SourceURL:     url,
		Title:         "Title " + text,
		Text:          text,
		SequenceIndex: seq,
	}
}

func testSite(url string) *webrag.Site {
	name, _ := webrag.SiteName(url)
	return &webrag.Site{URL: url, Name: name, Pages: 2, Chunks: 3}
}

func TestVectorStore_CreateIndex(t *testing.T) {
	t.Parallel()

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewVectorStore(setupTestDB(t), 2)

		_, err := store.CreateIndex(context.Background(), "")

		assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
	})

	t.Run("new index is not active", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 2)

		idx, err := store.CreateIndex(ctx, "example_com")
		require.NoError(t, err)
		assert.NotEmpty(t, idx.ID())

		_, err = store.ActiveIndex(ctx)
		assert.Equal(t, webrag.ENOTFOUND, webrag.ErrorCode(err))
	})
}

func TestIndex_UpsertAndQuery(t *testing.T) {
	t.Parallel()

	t.Run("round-trips chunks and embeddings", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 3)

		idx, err := store.CreateIndex(ctx, "example_com")
		require.NoError(t, err)

		c := testChunk("https://example.com/a", 2, "alpha")
		require.NoError(t, idx.Upsert(ctx, c.ID, []float32{0.5, -1, 2}, c))

		got, err := idx.Query(ctx, []float32{0.5, -1, 2}, 5)
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, c.ID, got[0].Chunk.ID)
		assert.Equal(t, "https://example.com/a", got[0].Chunk.SourceURL)
		assert.Equal(t, "Title alpha", got[0].Chunk.Title)
		assert.Equal(t, "alpha", got[0].Chunk.Text)
		assert.Equal(t, 2, got[0].Chunk.SequenceIndex)
		assert.Equal(t, []float32{0.5, -1, 2}, got[0].Chunk.Embedding)
		assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	})

	t.Run("upsert overwrites by chunk ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 2)

		idx, err := store.CreateIndex(ctx, "x")
		require.NoError(t, err)

		c := testChunk("https://example.com", 0, "old")
		require.NoError(t, idx.Upsert(ctx, c.ID, []float32{1, 0}, c))
		c.Text = "new"
		require.NoError(t, idx.Upsert(ctx, c.ID, []float32{0, 1}, c))

		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := idx.Query(ctx, []float32{0, 1}, 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "new", got[0].Chunk.Text)
	})

	t.Run("orders results by descending score", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 2)

		idx, err := store.CreateIndex(ctx, "x")
		require.NoError(t, err)

		vectors := map[string][]float32{"far": {0, 1}, "near": {1, 0.1}, "mid": {1, 1}}
		seq := 0
		for text, v := range vectors {
			c := testChunk("https://example.com", seq, text)
			require.NoError(t, idx.Upsert(ctx, c.ID, v, c))
			seq++
		}

		got, err := idx.Query(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)

		require.Len(t, got, 2)
		assert.Equal(t, "near", got[0].Chunk.Text)
		assert.Equal(t, "mid", got[1].Chunk.Text)
		assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
	})

	t.Run("rejects vectors of the wrong dimension", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 2)

		idx, err := store.CreateIndex(ctx, "x")
		require.NoError(t, err)

		c := testChunk("https://example.com", 0, "t")
		err = idx.Upsert(ctx, c.ID, []float32{1, 2, 3}, c)

		assert.Equal(t, webrag.EEMBEDDING, webrag.ErrorCode(err))
		assert.Equal(t, webrag.ReasonDimensionMismatch, webrag.ErrorReason(err))
	})

	t.Run("clear empties the index", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 1)

		idx, err := store.CreateIndex(ctx, "x")
		require.NoError(t, err)
		c := testChunk("https://example.com", 0, "t")
		require.NoError(t, idx.Upsert(ctx, c.ID, []float32{1}, c))

		require.NoError(t, idx.Clear(ctx))

		got, err := idx.Query(ctx, []float32{1}, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestVectorStore_Publish(t *testing.T) {
	t.Parallel()

	t.Run("publishes index with its site", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 1)

		idx, err := store.CreateIndex(ctx, "example_com")
		require.NoError(t, err)
		site := testSite("https://example.com")
		require.NoError(t, store.Publish(ctx, idx, site))
		assert.NotEmpty(t, site.ID)

		active, err := store.ActiveIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, idx.ID(), active.ID())

		got, err := store.ActiveSite(ctx)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.URL)
		assert.Equal(t, "example_com", got.Name)
		assert.Equal(t, 2, got.Pages)
		assert.Equal(t, 3, got.Chunks)
		assert.False(t, got.IndexedAt.IsZero())
	})

	t.Run("drops chunks of the previously published index", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		db := setupTestDB(t)
		store := sqlite.NewVectorStore(db, 1)

		first, err := store.CreateIndex(ctx, "a_example")
		require.NoError(t, err)
		c := testChunk("https://a.example", 0, "old site")
		require.NoError(t, first.Upsert(ctx, c.ID, []float32{1}, c))
		require.NoError(t, store.Publish(ctx, first, testSite("https://a.example")))

		second, err := store.CreateIndex(ctx, "b_example")
		require.NoError(t, err)
		c2 := testChunk("https://b.example", 0, "new site")
		require.NoError(t, second.Upsert(ctx, c2.ID, []float32{1}, c2))

		// Unpublished build is invisible to queries of the active index.
		active, err := store.ActiveIndex(ctx)
		require.NoError(t, err)
		got, err := active.Query(ctx, []float32{1}, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "old site", got[0].Chunk.Text)

		require.NoError(t, store.Publish(ctx, second, testSite("https://b.example")))

		active, err = store.ActiveIndex(ctx)
		require.NoError(t, err)
		got, err = active.Query(ctx, []float32{1}, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "https://b.example", got[0].Chunk.SourceURL)

		var total int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&total))
		assert.Equal(t, 1, total)
	})

	t.Run("unknown index is not found", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := sqlite.NewVectorStore(setupTestDB(t), 1)

		idx, err := store.CreateIndex(ctx, "x")
		require.NoError(t, err)
		require.NoError(t, store.DropIndex(ctx, idx))

		err = store.Publish(ctx, idx, testSite("https://example.com"))
		assert.Equal(t, webrag.ENOTFOUND, webrag.ErrorCode(err))
	})

	t.Run("published index survives reopening the database", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		path := t.TempDir() + "/webrag.db"

		db := sqlite.NewDB(path)
		require.NoError(t, db.Open())
		store := sqlite.NewVectorStore(db, 1)
		idx, err := store.CreateIndex(ctx, "example_com")
		require.NoError(t, err)
		c := testChunk("https://example.com", 0, "persisted")
		require.NoError(t, idx.Upsert(ctx, c.ID, []float32{1}, c))
		require.NoError(t, store.Publish(ctx, idx, testSite("https://example.com")))
		require.NoError(t, db.Close())

		db2 := sqlite.NewDB(path)
		require.NoError(t, db2.Open())
		defer db2.Close()
		store2 := sqlite.NewVectorStore(db2, 1)

		active, err := store2.ActiveIndex(ctx)
		require.NoError(t, err)
		got, err := active.Query(ctx, []float32{1}, 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "persisted", got[0].Chunk.Text)
	})

	t.Run("active index with another dimension is a mismatch", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		db := setupTestDB(t)

		idx, err := sqlite.NewVectorStore(db, 2).CreateIndex(ctx, "x")
		require.NoError(t, err)
		require.NoError(t, sqlite.NewVectorStore(db, 2).Publish(ctx, idx, testSite("https://example.com")))

		_, err = sqlite.NewVectorStore(db, 3).ActiveIndex(ctx)
		assert.Equal(t, webrag.ReasonDimensionMismatch, webrag.ErrorReason(err))
	})
}

func TestVectorStore_DropIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sqlite.NewVectorStore(setupTestDB(t), 1)

	idx, err := store.CreateIndex(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, store.Publish(ctx, idx, testSite("https://example.com")))

	err = store.DropIndex(ctx, idx)
	assert.Equal(t, webrag.ECONFLICT, webrag.ErrorCode(err))
}

func TestVectorStore_Reset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	store := sqlite.NewVectorStore(db, 1)

	idx, err := store.CreateIndex(ctx, "x")
	require.NoError(t, err)
	c := testChunk("https://example.com", 0, "t")
	require.NoError(t, idx.Upsert(ctx, c.ID, []float32{1}, c))
	require.NoError(t, store.Publish(ctx, idx, testSite("https://example.com")))

	require.NoError(t, store.Reset(ctx))

	_, err = store.ActiveIndex(ctx)
	assert.Equal(t, webrag.ENOTFOUND, webrag.ErrorCode(err))
	_, err = store.ActiveSite(ctx)
	assert.Equal(t, webrag.ENOTFOUND, webrag.ErrorCode(err))

	var total int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&total))
	assert.Zero(t, total)
}
