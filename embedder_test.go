package webrag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDimension(t *testing.T) {
	t.Parallel()

	fixed := func(n int) *mock.Embedder {
		return &mock.Embedder{
			EmbedFn: func(context.Context, string) ([]float32, error) {
				return make([]float32, n), nil
			},
		}
	}

	t.Run("accepts matching dimension", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, webrag.CheckDimension(context.Background(), fixed(384), 384))
	})

	t.Run("reports dimension mismatch", func(t *testing.T) {
		t.Parallel()

		err := webrag.CheckDimension(context.Background(), fixed(768), 384)

		require.Error(t, err)
		assert.Equal(t, webrag.EEMBEDDING, webrag.ErrorCode(err))
		assert.Equal(t, webrag.ReasonDimensionMismatch, webrag.ErrorReason(err))
		assert.Contains(t, webrag.ErrorMessage(err), "768")
	})

	t.Run("wraps untyped embedder failures as unavailable", func(t *testing.T) {
		t.Parallel()

		e := &mock.Embedder{
			EmbedFn: func(context.Context, string) ([]float32, error) {
				return nil, errors.New("connection refused")
			},
		}

		err := webrag.CheckDimension(context.Background(), e, 384)

		require.Error(t, err)
		assert.Equal(t, webrag.EEMBEDDING, webrag.ErrorCode(err))
		assert.Equal(t, webrag.ReasonUnavailable, webrag.ErrorReason(err))
	})

	t.Run("rejects non-positive dimension", func(t *testing.T) {
		t.Parallel()

		err := webrag.CheckDimension(context.Background(), fixed(0), 0)

		assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
	})
}
