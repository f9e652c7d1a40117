package webrag

import "context"

// TokenCounter sizes crawled page text in model tokens. The counts only
// feed site statistics, so callers treat a failure as an unknown count
// rather than a failed crawl.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
