package webrag_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/webrag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retrieved(url string, seq int, title, text string, score float32) *webrag.RetrievedChunk {
	return &webrag.RetrievedChunk{
		Chunk: &webrag.Chunk{
			ID:            webrag.ChunkID(url, seq),
			SourceURL:     url,
			Title:         title,
			Text:          text,
			SequenceIndex: seq,
		},
		Score: score,
	}
}

func TestInsufficientAnswer(t *testing.T) {
	t.Parallel()

	a := webrag.InsufficientAnswer()

	assert.Equal(t, webrag.InsufficientInformation, a.Text)
	assert.NotNil(t, a.Citations)
	assert.Empty(t, a.Citations)
	assert.False(t, a.Grounded)
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	chunks := []*webrag.RetrievedChunk{
		retrieved("https://example.com/pricing", 0, "Pricing", "Plans start at $10.", 0.9),
		retrieved("https://example.com/about", 1, "", "Founded in 2020.", 0.7),
	}

	p := webrag.BuildPrompt("How much does it cost?", chunks)

	assert.Equal(t, webrag.SystemInstruction, p.System)
	assert.Contains(t, p.System, "ONLY the sources")
	assert.Contains(t, p.System, webrag.InsufficientInformation)
	assert.Contains(t, p.User, `<source id="`+chunks[0].Chunk.ID+`" url="https://example.com/pricing" title="Pricing">`)
	assert.Contains(t, p.User, "Plans start at $10.")
	assert.Contains(t, p.User, `title="https://example.com/about"`)
	assert.True(t, strings.HasSuffix(p.User, "Question: How much does it cost?"))
	assert.Less(t, strings.Index(p.User, "Pricing"), strings.Index(p.User, "Founded"))
}

func TestExtractCitations(t *testing.T) {
	t.Parallel()

	a := retrieved("https://example.com/a", 0, "A", "alpha", 0.9)
	b := retrieved("https://example.com/b", 0, "B", "beta", 0.8)
	c := retrieved("https://example.com/c", 3, "C", "gamma", 0.4)
	passed := []*webrag.RetrievedChunk{a, b, c}

	t.Run("cites referenced chunks in retrieval order", func(t *testing.T) {
		t.Parallel()

		text := "Gamma is true [" + c.Chunk.ID + "] and alpha too [" + a.Chunk.ID + "]. Again [" + c.Chunk.ID + "]."

		got := webrag.ExtractCitations(text, passed)

		require.Len(t, got, 2)
		assert.Equal(t, a.Chunk.ID, got[0].ChunkID)
		assert.Equal(t, "https://example.com/a", got[0].SourceURL)
		assert.Equal(t, float32(0.9), got[0].Score)
		assert.Equal(t, c.Chunk.ID, got[1].ChunkID)
	})

	t.Run("ignores ids that were not passed to generation", func(t *testing.T) {
		t.Parallel()

		foreign := webrag.ChunkID("https://evil.example", 0)
		text := "Claim [" + foreign + "] and [" + b.Chunk.ID + "]"

		got := webrag.ExtractCitations(text, passed)

		require.Len(t, got, 1)
		assert.Equal(t, b.Chunk.ID, got[0].ChunkID)
	})

	t.Run("falls back to all passed chunks when nothing is referenced", func(t *testing.T) {
		t.Parallel()

		got := webrag.ExtractCitations("An answer with no markers.", passed)

		require.Len(t, got, 3)
		assert.Equal(t, a.Chunk.ID, got[0].ChunkID)
		assert.Equal(t, b.Chunk.ID, got[1].ChunkID)
		assert.Equal(t, c.Chunk.ID, got[2].ChunkID)
	})

	t.Run("reads grouped markers", func(t *testing.T) {
		t.Parallel()

		text := "Both hold [" + b.Chunk.ID + ", " + c.Chunk.ID + "]."

		got := webrag.ExtractCitations(text, passed)

		require.Len(t, got, 2)
		assert.Equal(t, b.Chunk.ID, got[0].ChunkID)
		assert.Equal(t, c.Chunk.ID, got[1].ChunkID)
	})

	t.Run("ignores unbracketed hex tokens", func(t *testing.T) {
		t.Parallel()

		text := "Pin commit " + a.Chunk.ID + " as described [" + c.Chunk.ID + "]."

		got := webrag.ExtractCitations(text, passed)

		require.Len(t, got, 1)
		assert.Equal(t, c.Chunk.ID, got[0].ChunkID)
	})

	t.Run("refusal without markers cites nothing", func(t *testing.T) {
		t.Parallel()

		got := webrag.ExtractCitations(webrag.InsufficientInformation, passed)

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("every citation is among the passed chunks", func(t *testing.T) {
		t.Parallel()

		ids := map[string]bool{a.Chunk.ID: true, b.Chunk.ID: true, c.Chunk.ID: true}
		for _, text := range []string{"x", "[" + a.Chunk.ID + "]", "[ffffffffffffffff]", webrag.InsufficientInformation} {
			for _, cit := range webrag.ExtractCitations(text, passed) {
				assert.True(t, ids[cit.ChunkID], "unexpected citation %s", cit.ChunkID)
			}
		}
	})
}

func TestNumberCitations(t *testing.T) {
	t.Parallel()

	a := webrag.ChunkID("https://example.com/a", 0)
	b := webrag.ChunkID("https://example.com/b", 0)
	unknown := webrag.ChunkID("https://example.com/z", 9)
	citations := []webrag.Citation{{ChunkID: a}, {ChunkID: b}}

	t.Run("numbers markers by citation position", func(t *testing.T) {
		t.Parallel()

		got := webrag.NumberCitations("One ["+b+"]. Two ["+a+"]. Three ["+unknown+"].", citations)

		assert.Equal(t, "One [2]. Two [1]. Three .", got)
	})

	t.Run("numbers grouped markers", func(t *testing.T) {
		t.Parallel()

		got := webrag.NumberCitations("Both ["+a+", "+unknown+", "+b+"].", citations)

		assert.Equal(t, "Both [1, 2].", got)
	})

	t.Run("leaves text outside markers alone", func(t *testing.T) {
		t.Parallel()

		text := "Declare it as []string and pin commit deadbeefcafebabe [" + a + "]."

		got := webrag.NumberCitations(text, citations)

		assert.Equal(t, "Declare it as []string and pin commit deadbeefcafebabe [1].", got)
	})

	t.Run("keeps bracketed text that is not an id", func(t *testing.T) {
		t.Parallel()

		text := "Use arr[0] or [optional] flags [" + b + "]."

		got := webrag.NumberCitations(text, citations)

		assert.Equal(t, "Use arr[0] or [optional] flags [2].", got)
	})
}
