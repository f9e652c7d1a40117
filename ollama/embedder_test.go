package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedder_Embed(t *testing.T) {
	t.Parallel()

	t.Run("returns embedding", func(t *testing.T) {
		t.Parallel()

		var got map[string]string
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/embeddings", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"embedding":[0.5,-0.25,1]}`))
		})

		vec, err := ollama.NewEmbedder(ollama.WithBaseURL(srv.URL+"/")).Embed(context.Background(), "opening hours")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
		assert.Equal(t, ollama.DefaultModel, got["model"])
		assert.Equal(t, "opening hours", got["prompt"])
	})

	t.Run("uses configured model", func(t *testing.T) {
		t.Parallel()

		var got map[string]string
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"embedding":[1]}`))
		})

		_, err := ollama.NewEmbedder(ollama.WithBaseURL(srv.URL), ollama.WithModel("nomic-embed-text")).
			Embed(context.Background(), "x")

		require.NoError(t, err)
		assert.Equal(t, "nomic-embed-text", got["model"])
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()

		_, err := ollama.NewEmbedder().Embed(context.Background(), "  ")

		assert.Equal(t, webrag.EINVALID, webrag.ErrorCode(err))
	})

	t.Run("empty embedding", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"embedding":[]}`))
		})

		_, err := ollama.NewEmbedder(ollama.WithBaseURL(srv.URL)).Embed(context.Background(), "x")

		assert.Equal(t, webrag.EEMBEDDING, webrag.ErrorCode(err))
		assert.Equal(t, webrag.ReasonUnavailable, webrag.ErrorReason(err))
	})

	t.Run("malformed response", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := ollama.NewEmbedder(ollama.WithBaseURL(srv.URL)).Embed(context.Background(), "x")

		assert.Equal(t, webrag.EEMBEDDING, webrag.ErrorCode(err))
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := ollama.NewEmbedder(ollama.WithBaseURL(url)).Embed(context.Background(), "x")

		assert.Equal(t, webrag.EEMBEDDING, webrag.ErrorCode(err))
		assert.Equal(t, webrag.ReasonUnreachable, webrag.ErrorReason(err))
	})

	t.Run("client timeout", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"embedding":[1]}`))
		})

		e := ollama.NewEmbedder(ollama.WithBaseURL(srv.URL), ollama.WithClient(&http.Client{Timeout: 20 * time.Millisecond}))
		_, err := e.Embed(context.Background(), "x")

		assert.Equal(t, webrag.ReasonTimeout, webrag.ErrorReason(err))
		assert.True(t, webrag.IsTransient(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ollama.NewEmbedder(ollama.WithBaseURL("http://127.0.0.1:1")).Embed(ctx, "x")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEmbedder_Embed_status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		reason string
	}{
		{http.StatusNotFound, webrag.ReasonUnreachable},
		{http.StatusTooManyRequests, webrag.ReasonRateLimited},
		{http.StatusGatewayTimeout, webrag.ReasonTimeout},
		{http.StatusInternalServerError, webrag.ReasonUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"model \"all-minilm\" not found"}`, tt.status)
			})

			_, err := ollama.NewEmbedder(ollama.WithBaseURL(srv.URL)).Embed(context.Background(), "x")

			assert.Equal(t, webrag.EEMBEDDING, webrag.ErrorCode(err))
			assert.Equal(t, tt.reason, webrag.ErrorReason(err))
		})
	}
}
