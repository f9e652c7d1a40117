package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/webrag"
)

// Composer turns retrieved chunks into a grounded, cited answer.
type Composer struct {
	Generator webrag.Generator

	// MinScore, when positive, drops chunks scoring below it from the
	// prompt. If every chunk falls below, all of them are used anyway.
	MinScore float32

	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Answer answers query from retrieved. With nothing retrieved it returns
// the insufficient-information answer without calling the generator.
func (c *Composer) Answer(ctx context.Context, query string, retrieved []*webrag.RetrievedChunk) (*webrag.Answer, error) {
	if len(retrieved) == 0 {
		return webrag.InsufficientAnswer(), nil
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	logger := loggerOrDiscard(c.Logger)

	grounding := c.ground(retrieved)
	prompt := webrag.BuildPrompt(query, grounding)

	text, err := retryTransient(ctx, delay, logger, "generate", func(ctx context.Context) (string, error) {
		return c.Generator.Generate(ctx, prompt)
	})
	if err != nil {
		if webrag.ErrorCode(err) != webrag.EGENERATION {
			return nil, webrag.WrapError(webrag.EGENERATION, webrag.ReasonUnavailable, err, "generation failed")
		}
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, webrag.WrapError(webrag.EGENERATION, webrag.ReasonRefused, nil, "generator returned no text")
	}

	citations := webrag.ExtractCitations(text, grounding)
	return &webrag.Answer{
		Text:      webrag.NumberCitations(text, citations),
		Citations: citations,
		Grounded:  len(citations) > 0,
	}, nil
}

// ground applies MinScore, falling back to every retrieved chunk when none
// clears it.
func (c *Composer) ground(retrieved []*webrag.RetrievedChunk) []*webrag.RetrievedChunk {
	if c.MinScore <= 0 {
		return retrieved
	}
	var kept []*webrag.RetrievedChunk
	for _, rc := range retrieved {
		if rc.Score >= c.MinScore {
			kept = append(kept, rc)
		}
	}
	if len(kept) == 0 {
		return retrieved
	}
	return kept
}
