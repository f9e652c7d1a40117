package webrag

import "context"

// DefaultDimension is the embedding width of the default models
// (all-MiniLM-L6-v2 class sentence encoders).
const DefaultDimension = 384

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	// Embed returns the embedding of text. Failures are EEMBEDDING errors.
	// ReasonUnreachable means no further call will succeed either;
	// ReasonUnavailable means this call failed and a later one may not.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// dimensionProbe is embedded once at startup to learn the model's width.
const dimensionProbe = "dimension probe"

// CheckDimension verifies that embedder produces vectors of width dim.
// It is meant to run once before any index is built or queried, so a
// misconfigured model fails fast instead of corrupting the index.
func CheckDimension(ctx context.Context, embedder Embedder, dim int) error {
	if dim <= 0 {
		return Errorf(EINVALID, "embedding dimension must be positive, got %d", dim)
	}
	vec, err := embedder.Embed(ctx, dimensionProbe)
	if err != nil {
		if ErrorCode(err) == EEMBEDDING {
			return err
		}
		return WrapError(EEMBEDDING, ReasonUnavailable, err, "embedding probe failed")
	}
	if len(vec) != dim {
		return WrapError(EEMBEDDING, ReasonDimensionMismatch, nil,
			"embedder returned %d dimensions, index expects %d", len(vec), dim)
	}
	return nil
}
