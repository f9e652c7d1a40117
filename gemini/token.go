package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/webrag"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ webrag.TokenCounter = (*TokenCounter)(nil)

// TokenCounter sizes page text with Gemini's local tokenizer, so site
// statistics cost no API quota.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter returns a TokenCounter for model. Models without a
// published local tokenizer fail with EINVALID.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, webrag.Errorf(webrag.EINVALID, "no local tokenizer for model %q: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens returns how many tokens text takes as one user turn.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, "user"),
	}

	result, err := tc.tok.CountTokens(contents, nil)
	if err != nil {
		return 0, webrag.Errorf(webrag.EINTERNAL, "counting tokens for %d bytes of page text: %v", len(text), err)
	}

	return int(result.TotalTokens), nil
}
