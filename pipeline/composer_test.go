package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/mock"
	"github.com/fwojciec/webrag/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rc(url string, seq int, text string, score float32) *webrag.RetrievedChunk {
	return &webrag.RetrievedChunk{Chunk: draft(url, seq, text), Score: score}
}

func TestComposer_Answer(t *testing.T) {
	t.Parallel()

	t.Run("empty retrieval answers insufficient without generating", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				t.Fatal("generator must not be called")
				return "", nil
			},
		}}

		got, err := c.Answer(context.Background(), "anything", nil)
		require.NoError(t, err)

		assert.Equal(t, webrag.InsufficientInformation, got.Text)
		assert.Empty(t, got.Citations)
		assert.False(t, got.Grounded)
	})

	t.Run("cites marked chunks and numbers the markers", func(t *testing.T) {
		t.Parallel()

		a := rc("https://fruit.example/a", 0, "Apples are red.", 0.9)
		b := rc("https://fruit.example/b", 0, "Bananas are yellow.", 0.8)
		var prompt *webrag.Prompt
		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(_ context.Context, p *webrag.Prompt) (string, error) {
				prompt = p
				return "Bananas are yellow [" + b.Chunk.ID + "].", nil
			},
		}}

		got, err := c.Answer(context.Background(), "What color are bananas?", []*webrag.RetrievedChunk{a, b})
		require.NoError(t, err)

		require.NotNil(t, prompt)
		assert.Equal(t, webrag.SystemInstruction, prompt.System)
		assert.Contains(t, prompt.User, "What color are bananas?")
		assert.Contains(t, prompt.User, a.Chunk.ID)
		assert.Contains(t, prompt.User, b.Chunk.ID)

		assert.Equal(t, "Bananas are yellow [1].", got.Text)
		require.Len(t, got.Citations, 1)
		assert.Equal(t, b.Chunk.ID, got.Citations[0].ChunkID)
		assert.Equal(t, "https://fruit.example/b", got.Citations[0].SourceURL)
		assert.True(t, got.Grounded)
	})

	t.Run("numbers markers without touching code in the answer", func(t *testing.T) {
		t.Parallel()

		a := rc("https://fruit.example/api", 0, "Pass a []string of fruit names.", 0.9)
		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return "Pass a []string; release deadbeefcafebabe added it [" + a.Chunk.ID + "].", nil
			},
		}}

		got, err := c.Answer(context.Background(), "What does the API take?", []*webrag.RetrievedChunk{a})
		require.NoError(t, err)

		assert.Equal(t, "Pass a []string; release deadbeefcafebabe added it [1].", got.Text)
		require.Len(t, got.Citations, 1)
		assert.Equal(t, a.Chunk.ID, got.Citations[0].ChunkID)
	})

	t.Run("falls back to citing every passed chunk", func(t *testing.T) {
		t.Parallel()

		a := rc("https://fruit.example/a", 0, "x", 0.9)
		b := rc("https://fruit.example/b", 0, "y", 0.3)
		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return "Some answer.", nil
			},
		}}

		got, err := c.Answer(context.Background(), "q", []*webrag.RetrievedChunk{a, b})
		require.NoError(t, err)

		require.Len(t, got.Citations, 2)
		assert.Equal(t, a.Chunk.ID, got.Citations[0].ChunkID)
		assert.Equal(t, b.Chunk.ID, got.Citations[1].ChunkID)
	})

	t.Run("refusal is returned ungrounded", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return webrag.InsufficientInformation, nil
			},
		}}

		got, err := c.Answer(context.Background(), "q", []*webrag.RetrievedChunk{rc("https://fruit.example/a", 0, "x", 0.1)})
		require.NoError(t, err)

		assert.Equal(t, webrag.InsufficientInformation, got.Text)
		assert.Empty(t, got.Citations)
		assert.False(t, got.Grounded)
	})

	t.Run("min score drops weak chunks from the prompt", func(t *testing.T) {
		t.Parallel()

		strong := rc("https://fruit.example/a", 0, "strong text", 0.8)
		weak := rc("https://fruit.example/b", 0, "weak text", 0.2)
		var prompt *webrag.Prompt
		c := &pipeline.Composer{
			MinScore: 0.5,
			Generator: &mock.Generator{
				GenerateFn: func(_ context.Context, p *webrag.Prompt) (string, error) {
					prompt = p
					return "ok", nil
				},
			},
		}

		got, err := c.Answer(context.Background(), "q", []*webrag.RetrievedChunk{strong, weak})
		require.NoError(t, err)

		assert.Contains(t, prompt.User, "strong text")
		assert.NotContains(t, prompt.User, "weak text")
		require.Len(t, got.Citations, 1)
		assert.Equal(t, strong.Chunk.ID, got.Citations[0].ChunkID)
	})

	t.Run("min score keeps best effort matches when all are weak", func(t *testing.T) {
		t.Parallel()

		var prompt *webrag.Prompt
		c := &pipeline.Composer{
			MinScore: 0.5,
			Generator: &mock.Generator{
				GenerateFn: func(_ context.Context, p *webrag.Prompt) (string, error) {
					prompt = p
					return "ok", nil
				},
			},
		}

		_, err := c.Answer(context.Background(), "unrelated question", []*webrag.RetrievedChunk{
			rc("https://fruit.example/a", 0, "first weak", 0.2),
			rc("https://fruit.example/b", 0, "second weak", 0.1),
		})
		require.NoError(t, err)

		assert.Contains(t, prompt.User, "first weak")
		assert.Contains(t, prompt.User, "second weak")
	})

	t.Run("surfaces typed generation failures", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return "", webrag.WrapError(webrag.EGENERATION, webrag.ReasonRefused, nil, "blocked by safety filters")
			},
		}}

		got, err := c.Answer(context.Background(), "q", []*webrag.RetrievedChunk{rc("https://fruit.example/a", 0, "x", 0.9)})

		require.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, webrag.EGENERATION, webrag.ErrorCode(err))
		assert.Equal(t, webrag.ReasonRefused, webrag.ErrorReason(err))
	})

	t.Run("wraps untyped failures as generation errors", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection reset")
		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return "", cause
			},
		}}

		_, err := c.Answer(context.Background(), "q", []*webrag.RetrievedChunk{rc("https://fruit.example/a", 0, "x", 0.9)})

		assert.Equal(t, webrag.EGENERATION, webrag.ErrorCode(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("retries a rate limit once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		c := &pipeline.Composer{
			RetryDelay: testRetryDelay,
			Generator: &mock.Generator{
				GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
					calls.Add(1)
					return "", webrag.WrapError(webrag.EGENERATION, webrag.ReasonRateLimited, nil, "quota")
				},
			},
		}

		_, err := c.Answer(context.Background(), "q", []*webrag.RetrievedChunk{rc("https://fruit.example/a", 0, "x", 0.9)})

		assert.Equal(t, webrag.ReasonRateLimited, webrag.ErrorReason(err))
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("empty generation is refused", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Composer{Generator: &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return "  \n", nil
			},
		}}

		_, err := c.Answer(context.Background(), "q", []*webrag.RetrievedChunk{rc("https://fruit.example/a", 0, "x", 0.9)})

		assert.Equal(t, webrag.EGENERATION, webrag.ErrorCode(err))
		assert.Equal(t, webrag.ReasonRefused, webrag.ErrorReason(err))
	})
}
