// Package ollama computes embeddings with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/webrag"
)

// Defaults for a local server running all-minilm, a 384-dimension
// sentence encoder.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "all-minilm"
	DefaultTimeout = 30 * time.Second
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// MaxInputChars is the longest text, in runes, worth sending. Longer input
// is cut off by the model's context window.
const MaxInputChars = 2000

var _ webrag.Embedder = (*Embedder)(nil)

// Embedder calls the Ollama embeddings endpoint.
type Embedder struct {
	client  *http.Client
	baseURL string
	model   string
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithBaseURL sets the server URL.
func WithBaseURL(u string) Option {
	return func(e *Embedder) {
		e.baseURL = strings.TrimRight(u, "/")
	}
}

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(e *Embedder) {
		e.client = c
	}
}

// NewEmbedder returns an Embedder for DefaultModel on DefaultBaseURL.
func NewEmbedder(opts ...Option) *Embedder {
	e := &Embedder{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "text to embed is empty")
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, webrag.Errorf(webrag.EINTERNAL, "encoding request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, webrag.Errorf(webrag.EINVALID, "invalid ollama URL %q", e.baseURL)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonUnavailable, err, "decoding ollama response")
	}
	if len(out.Embedding) == 0 {
		return nil, webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonUnavailable, nil,
			"ollama returned no embedding for model %q", e.model)
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonTimeout, err, "ollama request timed out")
	}
	return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonUnreachable, err, "cannot reach ollama")
}

func statusError(status int, msg string) error {
	switch {
	case status == http.StatusNotFound:
		return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonUnreachable, nil, "ollama model not available: %s", msg)
	case status == http.StatusTooManyRequests:
		return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonRateLimited, nil, "ollama is busy: %s", msg)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonTimeout, nil, "ollama request timed out")
	}
	return webrag.WrapError(webrag.EEMBEDDING, webrag.ReasonUnavailable, nil, "ollama error (status %d): %s", status, msg)
}
