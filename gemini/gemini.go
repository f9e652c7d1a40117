// Package gemini implements generation, embeddings and token counting with
// Google Gemini.
package gemini

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/fwojciec/webrag"
	"google.golang.org/genai"
)

// Default model names.
const (
	DefaultGenerationModel = "gemini-2.5-flash"
	DefaultEmbeddingModel  = "text-embedding-004"
)

// NewClient returns a Gemini API client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, webrag.Errorf(webrag.EINVALID, "GEMINI_API_KEY is required")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// TranslateError converts a client error into a typed error with the given
// code. Context errors pass through unchanged unless the deadline expired.
func TranslateError(ctx context.Context, code string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return webrag.WrapError(code, webrag.ReasonTimeout, err, "gemini request timed out")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return webrag.WrapError(code, webrag.ReasonUnreachable, err, "cannot reach gemini")
		}
		return webrag.WrapError(code, webrag.ReasonUnavailable, err, "gemini request failed")
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return webrag.WrapError(code, webrag.ReasonRateLimited, err, "gemini rate limit exceeded")
	case apiErr.Code == http.StatusRequestTimeout || apiErr.Code == http.StatusGatewayTimeout:
		return webrag.WrapError(code, webrag.ReasonTimeout, err, "gemini request timed out")
	case apiErr.Code == http.StatusBadRequest && code == webrag.EGENERATION:
		return webrag.WrapError(code, webrag.ReasonRefused, err, "gemini rejected the request: %s", apiErr.Message)
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return webrag.WrapError(code, webrag.ReasonUnreachable, err, "gemini credentials rejected")
	}
	return webrag.WrapError(code, webrag.ReasonUnavailable, err, "gemini error %d: %s", apiErr.Code, apiErr.Message)
}
