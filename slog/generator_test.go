package slog_test

import (
	"context"
	"testing"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/mock"
	wslog "github.com/fwojciec/webrag/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingGenerator_Generate(t *testing.T) {
	t.Parallel()

	t.Run("logs prompt and answer size", func(t *testing.T) {
		t.Parallel()

		buf, logger := newLogger()
		inner := &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return "Open at 7.", nil
			},
		}

		text, err := wslog.NewLoggingGenerator(inner, logger).Generate(context.Background(), &webrag.Prompt{System: "ab", User: "cde"})

		require.NoError(t, err)
		assert.Equal(t, "Open at 7.", text)
		out := buf.String()
		assert.Contains(t, out, "prompt_chars=5")
		assert.Contains(t, out, "answer_chars=10")
	})

	t.Run("logs refusal reason", func(t *testing.T) {
		t.Parallel()

		buf, logger := newLogger()
		inner := &mock.Generator{
			GenerateFn: func(context.Context, *webrag.Prompt) (string, error) {
				return "", webrag.WrapError(webrag.EGENERATION, webrag.ReasonRefused, nil, "blocked")
			},
		}

		_, err := wslog.NewLoggingGenerator(inner, logger).Generate(context.Background(), &webrag.Prompt{User: "q"})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "reason=refused")
	})
}
